package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// BidsHandler handles bid placement, bid reads and admin corrections.
type BidsHandler struct {
	DB      *db.DB
	Bidding *bidding.Service
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

type fixBidRequest struct {
	Amount int64 `json:"amount"`
}

// Place handles POST /api/auctions/{auction}/lots/{lot}/bids. The bidder
// is the authenticated user.
func (h *BidsHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req placeBidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bid, err := h.Bidding.PlaceBid(r.Context(), model.PlaceBidRequest{
		AuctionID: r.PathValue("auction"),
		LotID:     r.PathValue("lot"),
		UserID:    claims.UserID,
		Amount:    req.Amount,
	})
	if err != nil {
		writeStoreError(w, err, "place bid")
		return
	}
	jsonResponse(w, http.StatusCreated, bid)
}

// Highest handles GET /api/auctions/{auction}/lots/{lot}/highest. The body
// is null when the lot has no bids.
func (h *BidsHandler) Highest(w http.ResponseWriter, r *http.Request) {
	bid, err := h.Bidding.HighestBid(r.Context(), r.PathValue("auction"), r.PathValue("lot"))
	if err != nil {
		writeStoreError(w, err, "get highest bid")
		return
	}
	jsonResponse(w, http.StatusOK, bid)
}

// History handles GET /api/auctions/{auction}/lots/{lot}/bids. ?limit=
// caps the list, newest first.
func (h *BidsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	bids, err := h.Bidding.LotBidHistory(r.Context(), r.PathValue("auction"), r.PathValue("lot"), limit)
	if err != nil {
		writeStoreError(w, err, "list bids")
		return
	}
	jsonResponse(w, http.StatusOK, bids)
}

// MyBids handles GET /api/me/bids.
func (h *BidsHandler) MyBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.Bidding.MyBids(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "list bids")
		return
	}
	jsonResponse(w, http.StatusOK, bids)
}

// MyWins handles GET /api/me/wins.
func (h *BidsHandler) MyWins(w http.ResponseWriter, r *http.Request) {
	h.writeWins(w, r, GetClaims(r.Context()).UserID)
}

// UserWins handles GET /api/users/{id}/wins.
func (h *BidsHandler) UserWins(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	h.writeWins(w, r, id)
}

func (h *BidsHandler) writeWins(w http.ResponseWriter, r *http.Request, userID int64) {
	wins, err := store.WinsForUser(r.Context(), h.DB, userID)
	if err != nil {
		writeStoreError(w, err, "list wins")
		return
	}
	if wins == nil {
		wins = []model.WinnerRecord{}
	}
	jsonResponse(w, http.StatusOK, wins)
}

// Fix handles PUT /api/bids/{id}.
func (h *BidsHandler) Fix(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bid id")
		return
	}

	var req fixBidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bid, err := h.Bidding.FixBidAmount(r.Context(), id, req.Amount)
	if err != nil {
		writeStoreError(w, err, "update bid")
		return
	}

	slog.Info("bid corrected by admin", "user", GetClaims(r.Context()).Username, "bid", id, "amount", req.Amount)
	jsonResponse(w, http.StatusOK, bid)
}

// Delete handles DELETE /api/bids/{id}.
func (h *BidsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bid id")
		return
	}

	if err := h.Bidding.DeleteBid(r.Context(), id); err != nil {
		writeStoreError(w, err, "delete bid")
		return
	}

	slog.Info("bid deleted by admin", "user", GetClaims(r.Context()).Username, "bid", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "bid deleted"})
}
