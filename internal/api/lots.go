package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// LotsHandler handles lot endpoints.
type LotsHandler struct {
	DB      *db.DB
	Bidding *bidding.Service
}

type saveLotRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	BasePrice int64  `json:"base_price"`
}

type assignSubItemsRequest struct {
	SubItems []model.SubItemRef `json:"sub_items"`
}

// List handles GET /api/lots. ?auction= limits the list to one auction.
func (h *LotsHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := store.ListLots(r.Context(), h.DB, r.URL.Query().Get("auction"))
	if err != nil {
		writeStoreError(w, err, "list lots")
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}
	jsonResponse(w, http.StatusOK, lots)
}

// Create handles POST /api/lots.
func (h *LotsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saveLotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID != "" {
		existing, err := store.GetLot(r.Context(), h.DB, req.ID)
		if err != nil {
			writeStoreError(w, err, "create lot")
			return
		}
		if existing != nil {
			jsonError(w, http.StatusConflict, "lot id already exists")
			return
		}
	}

	lot, err := store.SaveLot(r.Context(), h.DB, &model.Lot{
		ID: req.ID, Name: req.Name, Type: req.Type, BasePrice: req.BasePrice,
	})
	if err != nil {
		writeStoreError(w, err, "create lot")
		return
	}

	slog.Info("lot created", "user", GetClaims(r.Context()).Username, "lot", lot.ID, "base_price", lot.BasePrice)
	jsonResponse(w, http.StatusCreated, lot)
}

// Get handles GET /api/lots/{id}.
func (h *LotsHandler) Get(w http.ResponseWriter, r *http.Request) {
	lot, err := store.GetLot(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get lot")
		return
	}
	if lot == nil {
		jsonError(w, http.StatusNotFound, "lot not found")
		return
	}
	jsonResponse(w, http.StatusOK, lot)
}

// Update handles PUT /api/lots/{id}.
func (h *LotsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req saveLotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := store.GetLot(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "update lot")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "lot not found")
		return
	}

	lot, err := store.SaveLot(r.Context(), h.DB, &model.Lot{
		ID: id, Name: req.Name, Type: req.Type, BasePrice: req.BasePrice,
	})
	if err != nil {
		writeStoreError(w, err, "update lot")
		return
	}
	jsonResponse(w, http.StatusOK, lot)
}

// Delete handles DELETE /api/lots/{id}.
func (h *LotsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Bidding.DeleteLot(r.Context(), id); err != nil {
		writeStoreError(w, err, "delete lot")
		return
	}

	slog.Info("lot deleted", "user", GetClaims(r.Context()).Username, "lot", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "lot deleted"})
}

// AssignSubItems handles PUT /api/lots/{id}/sub-items. The body replaces
// the lot's sub-item set.
func (h *LotsHandler) AssignSubItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req assignSubItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.AssignSubItemsToLot(r.Context(), h.DB, id, req.SubItems); err != nil {
		writeStoreError(w, err, "assign sub-items")
		return
	}

	lot, err := store.GetLot(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "get lot")
		return
	}
	if lot == nil {
		jsonError(w, http.StatusNotFound, "lot not found")
		return
	}

	slog.Info("lot sub-items assigned", "user", GetClaims(r.Context()).Username, "lot", id,
		"sub_items", len(lot.SubItems))
	jsonResponse(w, http.StatusOK, lot)
}
