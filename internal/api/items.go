package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/imaging"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// ItemsHandler handles item and sub-item endpoints.
type ItemsHandler struct {
	DB *db.DB
}

type subItemRequest struct {
	SrNo        int    `json:"sr_no"`
	Description string `json:"description"`
	Qty         int    `json:"qty"`
	Condition   string `json:"condition"`
	Make        string `json:"make"`
	MakeNo      string `json:"make_no"`
}

type saveItemRequest struct {
	ItemNo   int64            `json:"item_no"`
	Title    string           `json:"title"`
	FoundAt  string           `json:"found_at"`
	SubItems []subItemRequest `json:"sub_items"`
}

func (req saveItemRequest) item() *model.Item {
	item := &model.Item{ItemNo: req.ItemNo, Title: req.Title, FoundAt: req.FoundAt}
	for _, s := range req.SubItems {
		item.SubItems = append(item.SubItems, model.SubItem{
			ItemNo:      req.ItemNo,
			SrNo:        s.SrNo,
			Description: s.Description,
			Qty:         s.Qty,
			Condition:   s.Condition,
			Make:        s.Make,
			MakeNo:      s.MakeNo,
		})
	}
	return item
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saveItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, req.ItemNo)
	if err != nil {
		writeStoreError(w, err, "create item")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "item number already exists")
		return
	}

	item, err := store.SaveItem(r.Context(), h.DB, req.item())
	if err != nil {
		writeStoreError(w, err, "create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "item", item.ItemNo,
		"sub_items", len(item.SubItems))
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{no}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	no, err := pathInt(r, "no")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, no)
	if err != nil {
		writeStoreError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{no}. Sub-item rows missing from the body
// are removed.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	no, err := pathInt(r, "no")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	var req saveItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ItemNo = no

	existing, err := store.GetItem(r.Context(), h.DB, no)
	if err != nil {
		writeStoreError(w, err, "update item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	item, err := store.SaveItem(r.Context(), h.DB, req.item())
	if err != nil {
		writeStoreError(w, err, "update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{no}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	no, err := pathInt(r, "no")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, no); err != nil {
		writeStoreError(w, err, "delete item")
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "item", no)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadPhoto handles PUT /api/items/{no}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	no, err := pathInt(r, "no")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			jsonError(w, http.StatusBadRequest, "photo must be JPEG, PNG, or WebP")
			return
		}
		jsonError(w, http.StatusBadRequest, "could not process photo")
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, no, photo.Data, photo.Thumb, photo.MIME); err != nil {
		writeStoreError(w, err, "save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{no}/photo. ?thumb=1 returns the thumbnail.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	no, err := pathInt(r, "no")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	thumb := r.URL.Query().Get("thumb") == "1"
	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, no, thumb)
	if err != nil {
		writeStoreError(w, err, "get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
