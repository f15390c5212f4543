package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// AuctionsHandler handles auction, override state and finalization endpoints.
type AuctionsHandler struct {
	DB      *db.DB
	Bidding *bidding.Service
}

type saveAuctionRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DefaultBidTimer int    `json:"default_bid_timer"`
	Description     string `json:"description"`
	Status          string `json:"status"`
	// LotIDs, when present, replaces the auction's lot set.
	LotIDs *[]string `json:"lot_ids"`
}

func (req saveAuctionRequest) auction() *model.Auction {
	return &model.Auction{
		ID:              req.ID,
		Name:            req.Name,
		Type:            req.Type,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DefaultBidTimer: req.DefaultBidTimer,
		Description:     req.Description,
		Status:          req.Status,
	}
}

type assignLotsRequest struct {
	LotIDs []string `json:"lot_ids"`
}

type saveStateRequest struct {
	Status      string     `json:"status"`
	ActiveLotID string     `json:"active_lot_id"`
	BidEndsAt   *time.Time `json:"bid_ends_at"`
}

// auctionView is an auction with its phase at the time of the request.
type auctionView struct {
	model.Auction
	Phase string              `json:"phase"`
	State *model.AuctionState `json:"state,omitempty"`
	Lots  []model.Lot         `json:"lots,omitempty"`
}

// List handles GET /api/auctions.
func (h *AuctionsHandler) List(w http.ResponseWriter, r *http.Request) {
	auctions, err := store.ListAuctions(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, err, "list auctions")
		return
	}
	states, err := store.ListAuctionStates(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, err, "list auctions")
		return
	}
	byAuction := make(map[string]*model.AuctionState, len(states))
	for i := range states {
		byAuction[states[i].AuctionID] = &states[i]
	}

	views := make([]auctionView, len(auctions))
	for i := range auctions {
		st := byAuction[auctions[i].ID]
		views[i] = auctionView{
			Auction: auctions[i],
			Phase:   h.Bidding.Phase(&auctions[i], st),
			State:   st,
		}
	}
	jsonResponse(w, http.StatusOK, views)
}

// Get handles GET /api/auctions/{id}.
func (h *AuctionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := store.GetAuction(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "get auction")
		return
	}
	if a == nil {
		jsonError(w, http.StatusNotFound, "auction not found")
		return
	}
	st, err := store.GetAuctionState(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "get auction")
		return
	}
	lots, err := store.ListLots(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "get auction")
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}

	jsonResponse(w, http.StatusOK, auctionView{
		Auction: *a,
		Phase:   h.Bidding.Phase(a, st),
		State:   st,
		Lots:    lots,
	})
}

// Create handles POST /api/auctions.
func (h *AuctionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saveAuctionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID != "" {
		existing, err := store.GetAuction(r.Context(), h.DB, req.ID)
		if err != nil {
			writeStoreError(w, err, "create auction")
			return
		}
		if existing != nil {
			jsonError(w, http.StatusConflict, "auction id already exists")
			return
		}
	}

	h.save(w, r, req, http.StatusCreated)
}

// Update handles PUT /api/auctions/{id}.
func (h *AuctionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req saveAuctionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = r.PathValue("id")

	existing, err := store.GetAuction(r.Context(), h.DB, req.ID)
	if err != nil {
		writeStoreError(w, err, "update auction")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "auction not found")
		return
	}

	h.save(w, r, req, http.StatusOK)
}

// save stores the auction and, when lot_ids is present, its lot set in one
// transaction. A missing or conflicting lot leaves nothing saved.
func (h *AuctionsHandler) save(w http.ResponseWriter, r *http.Request, req saveAuctionRequest, status int) {
	var lotIDs []string
	if req.LotIDs != nil {
		lotIDs = *req.LotIDs
		if lotIDs == nil {
			lotIDs = []string{}
		}
	}

	saved, err := h.Bidding.SaveAuction(r.Context(), req.auction(), lotIDs)
	if err != nil {
		writeStoreError(w, err, "save auction")
		return
	}

	slog.Info("auction saved", "user", GetClaims(r.Context()).Username, "auction", saved.ID,
		"status", saved.Status, "lots", saved.LotCount)
	jsonResponse(w, status, saved)
}

// Delete handles DELETE /api/auctions/{id}.
func (h *AuctionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Bidding.DeleteAuction(r.Context(), id); err != nil {
		writeStoreError(w, err, "delete auction")
		return
	}

	slog.Info("auction deleted", "user", GetClaims(r.Context()).Username, "auction", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "auction deleted"})
}

// AssignLots handles PUT /api/auctions/{id}/lots.
func (h *AuctionsHandler) AssignLots(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req assignLotsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.AssignLotsToAuction(r.Context(), h.DB, id, req.LotIDs); err != nil {
		writeStoreError(w, err, "assign lots")
		return
	}

	lots, err := store.ListLots(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "list lots")
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}

	slog.Info("auction lots assigned", "user", GetClaims(r.Context()).Username, "auction", id, "lots", len(lots))
	jsonResponse(w, http.StatusOK, lots)
}

// GetState handles GET /api/auctions/{id}/state. It answers null when no
// override is set.
func (h *AuctionsHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	phase, err := h.Bidding.AuctionPhase(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "get auction state")
		return
	}
	st, err := store.GetAuctionState(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "get auction state")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"phase": phase, "state": st})
}

// ListStates handles GET /api/auction-states.
func (h *AuctionsHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := store.ListAuctionStates(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, err, "list auction states")
		return
	}
	if states == nil {
		states = []model.AuctionState{}
	}
	jsonResponse(w, http.StatusOK, states)
}

// SaveState handles PUT /api/auctions/{id}/state.
func (h *AuctionsHandler) SaveState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req saveStateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := store.SaveAuctionState(r.Context(), h.DB, &model.AuctionState{
		AuctionID:   id,
		Status:      req.Status,
		ActiveLotID: req.ActiveLotID,
		BidEndsAt:   req.BidEndsAt,
	})
	if err != nil {
		writeStoreError(w, err, "save auction state")
		return
	}

	slog.Info("auction state set", "user", GetClaims(r.Context()).Username, "auction", id,
		"status", st.Status, "active_lot", st.ActiveLotID)
	jsonResponse(w, http.StatusOK, st)
}

// Finalize handles POST /api/auctions/{id}/finalize.
func (h *AuctionsHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	winners, err := h.Bidding.FinalizeAuction(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "finalize auction")
		return
	}

	slog.Info("auction finalize requested", "user", GetClaims(r.Context()).Username, "auction", id)
	jsonResponse(w, http.StatusOK, winners)
}

// Winners handles GET /api/auctions/{id}/winners.
func (h *AuctionsHandler) Winners(w http.ResponseWriter, r *http.Request) {
	winners, err := store.ListWinners(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "list winners")
		return
	}
	if winners == nil {
		winners = []model.WinnerRecord{}
	}
	jsonResponse(w, http.StatusOK, winners)
}
