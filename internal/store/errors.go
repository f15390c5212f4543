package store

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every typed error below matches exactly one of them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrPrecondition = errors.New("precondition failed")
	ErrBidTooLow    = errors.New("bid too low")
)

// NotFoundError reports referenced entities that do not exist.
type NotFoundError struct {
	Entity string
	IDs    []string
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, strings.Join(e.IDs, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Conflict is one identifier already held by another lot or auction.
type Conflict struct {
	Ref    string `json:"ref"`
	HeldBy string `json:"held_by"`
}

// ConflictError lists every allocation that is already held elsewhere.
type ConflictError struct {
	Entity    string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s (held by %s)", c.Ref, c.HeldBy)
	}
	return fmt.Sprintf("%s already allocated: %s", e.Entity, strings.Join(parts, ", "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InvalidInputError reports a malformed or out-of-range field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// Precondition codes.
const (
	CodeAuctionNotLive   = "auction_not_live"
	CodeLotNotInAuction  = "lot_not_in_auction"
	CodeBidderNotEnabled = "bidder_not_enabled"
)

// PreconditionError reports a state that forbids the operation right now.
type PreconditionError struct {
	Code   string
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// BidTooLowError reports the smallest amount that would have been accepted.
type BidTooLowError struct {
	Amount  int64
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid of %d is too low, minimum is %d", e.Amount, e.Minimum)
}

func (e *BidTooLowError) Is(target error) bool { return target == ErrBidTooLow }

func notFound(entity string, ids ...string) error {
	return &NotFoundError{Entity: entity, IDs: ids}
}

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
