package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// SaveLot creates a lot or updates its name, type and base price.
func SaveLot(ctx context.Context, q db.Querier, lot *model.Lot) (*model.Lot, error) {
	if lot.ID == "" {
		return nil, invalid("id", "required")
	}
	if lot.Name == "" {
		return nil, invalid("name", "required")
	}
	if lot.Type == "" {
		lot.Type = model.TypeGeneral
	}
	if !model.ValidAuctionType(lot.Type) {
		return nil, invalid("type", "must be expensive or general")
	}
	if lot.BasePrice < 0 {
		return nil, invalid("base_price", "must not be negative")
	}

	now := time.Now().UTC()
	_, err := q.ExecContext(ctx,
		`INSERT INTO lots (id, name, type, base_price, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, type = excluded.type,
		     base_price = excluded.base_price, updated_at = excluded.updated_at`,
		lot.ID, lot.Name, lot.Type, lot.BasePrice, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("saving lot: %w", err)
	}

	return GetLot(ctx, q, lot.ID)
}

const lotSelect = `SELECT l.id, l.name, l.type, l.base_price, l.created_at, l.updated_at,
        (SELECT COUNT(*) FROM lot_items li WHERE li.lot_id = l.id) AS sub_item_count,
        al.auction_id
 FROM lots l
 LEFT JOIN auction_lots al ON al.lot_id = l.id`

// GetLot returns a lot with its member sub-items, or nil if it does not exist.
func GetLot(ctx context.Context, q db.Querier, id string) (*model.Lot, error) {
	lot, err := scanLot(q.QueryRowContext(ctx, lotSelect+` WHERE l.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lot: %w", err)
	}

	refs, err := lotMembers(ctx, q, id)
	if err != nil {
		return nil, err
	}
	lot.SubItems = refs
	return lot, nil
}

// ListLots returns lots ordered by ID. A non-empty auctionID limits the
// result to that auction's lots.
func ListLots(ctx context.Context, q db.Querier, auctionID string) ([]model.Lot, error) {
	query := lotSelect
	var args []any
	if auctionID != "" {
		query += ` WHERE al.auction_id = ?`
		args = append(args, auctionID)
	}
	query += ` ORDER BY l.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	defer rows.Close()

	var lots []model.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lot: %w", err)
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

// DeleteLot removes a lot. Its sub-items and auction become unassigned.
func DeleteLot(ctx context.Context, q db.Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM lots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lot: %w", err)
	}
	return expectRow(result, "lot", id)
}

func scanLot(row rowScanner) (*model.Lot, error) {
	lot := &model.Lot{}
	var auctionID sql.NullString
	err := row.Scan(&lot.ID, &lot.Name, &lot.Type, &lot.BasePrice, &lot.CreatedAt, &lot.UpdatedAt,
		&lot.SubItemCount, &auctionID)
	if err != nil {
		return nil, err
	}
	lot.AuctionID = auctionID.String
	return lot, nil
}

func lotMembers(ctx context.Context, q db.Querier, lotID string) ([]model.SubItemRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_no, sr_no FROM lot_items WHERE lot_id = ? ORDER BY item_no, sr_no`, lotID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing lot members: %w", err)
	}
	defer rows.Close()

	refs := []model.SubItemRef{}
	for rows.Next() {
		var r model.SubItemRef
		if err := rows.Scan(&r.ItemNo, &r.SrNo); err != nil {
			return nil, fmt.Errorf("scanning lot member: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// AssignSubItemsToLot replaces the lot's member sub-items with refs in one
// transaction. It fails with a NotFoundError for a missing lot or missing
// sub-items, and with a ConflictError naming every sub-item that another lot
// holds together with that lot. Duplicate refs collapse, so running it twice
// with the same set leaves the same membership.
func AssignSubItemsToLot(ctx context.Context, d *db.DB, lotID string, refs []model.SubItemRef) error {
	if lotID == "" {
		return invalid("lot_id", "required")
	}
	refs = dedupeRefs(refs)
	for _, r := range refs {
		if r.ItemNo <= 0 || r.SrNo <= 0 {
			return invalid("sub_items", fmt.Sprintf("bad reference %s", r))
		}
	}

	return retryOnUnique(ctx, func() error {
		return assignSubItems(ctx, d, lotID, refs)
	})
}

func assignSubItems(ctx context.Context, d *db.DB, lotID string, refs []model.SubItemRef) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var found string
	err = tx.QueryRowContext(ctx, `SELECT id FROM lots WHERE id = ?`+tx.ForUpdate(), lotID).Scan(&found)
	if err == sql.ErrNoRows {
		return notFound("lot", lotID)
	}
	if err != nil {
		return fmt.Errorf("locking lot: %w", err)
	}

	holders, err := subItemHolders(ctx, tx, refs)
	if err != nil {
		return err
	}

	var missing []string
	var conflicts []Conflict
	for _, r := range refs {
		holder, ok := holders[r]
		switch {
		case !ok:
			missing = append(missing, r.String())
		case holder != "" && holder != lotID:
			conflicts = append(conflicts, Conflict{Ref: r.String(), HeldBy: holder})
		}
	}
	if len(missing) > 0 {
		return &NotFoundError{Entity: "sub-item", IDs: missing}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Entity: "sub-item", Conflicts: conflicts}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lot_items WHERE lot_id = ?`, lotID); err != nil {
		return fmt.Errorf("clearing lot members: %w", err)
	}
	for _, r := range refs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lot_items (item_no, sr_no, lot_id) VALUES (?, ?, ?)`,
			r.ItemNo, r.SrNo, lotID,
		)
		if err != nil {
			return fmt.Errorf("adding sub-item %s to lot: %w", r, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE lots SET updated_at = ? WHERE id = ?`, time.Now().UTC(), lotID,
	); err != nil {
		return fmt.Errorf("touching lot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing lot members: %w", err)
	}
	return nil
}

// subItemHolders maps each existing ref to the lot holding it ("" when free).
// Refs that do not exist are absent from the map.
func subItemHolders(ctx context.Context, q db.Querier, refs []model.SubItemRef) (map[model.SubItemRef]string, error) {
	holders := make(map[model.SubItemRef]string, len(refs))
	if len(refs) == 0 {
		return holders, nil
	}

	where := ""
	args := make([]any, 0, 2*len(refs))
	for i, r := range refs {
		if i > 0 {
			where += " OR "
		}
		where += "(s.item_no = ? AND s.sr_no = ?)"
		args = append(args, r.ItemNo, r.SrNo)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT s.item_no, s.sr_no, li.lot_id
		 FROM sub_items s
		 LEFT JOIN lot_items li ON li.item_no = s.item_no AND li.sr_no = s.sr_no
		 WHERE `+where, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("checking sub-items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.SubItemRef
		var lotID sql.NullString
		if err := rows.Scan(&r.ItemNo, &r.SrNo, &lotID); err != nil {
			return nil, fmt.Errorf("scanning sub-item holder: %w", err)
		}
		holders[r] = lotID.String
	}
	return holders, rows.Err()
}

func dedupeRefs(refs []model.SubItemRef) []model.SubItemRef {
	seen := make(map[model.SubItemRef]bool, len(refs))
	out := make([]model.SubItemRef, 0, len(refs))
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
