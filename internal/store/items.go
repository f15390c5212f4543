package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// SaveItem creates or updates an item and replaces its sub-item rows.
// Rows are matched by serial number: existing rows are updated in place so
// their lot membership survives, rows missing from item.SubItems are removed
// (which also drops them from their lot). A zero serial number defaults to
// the row's position, starting at 1.
func SaveItem(ctx context.Context, d *db.DB, item *model.Item) (*model.Item, error) {
	if item.ItemNo <= 0 {
		return nil, invalid("item_no", "must be positive")
	}
	rows, err := normalizeSubItems(item.ItemNo, item.SubItems)
	if err != nil {
		return nil, err
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (item_no, title, found_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (item_no) DO UPDATE SET title = excluded.title, found_at = excluded.found_at,
		     updated_at = excluded.updated_at`,
		item.ItemNo, item.Title, item.FoundAt, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}

	keep := make([]any, 0, len(rows)+1)
	keep = append(keep, item.ItemNo)
	for _, s := range rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sub_items (item_no, sr_no, description, qty, condition, make, make_no)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (item_no, sr_no) DO UPDATE SET description = excluded.description,
			     qty = excluded.qty, condition = excluded.condition, make = excluded.make,
			     make_no = excluded.make_no`,
			s.ItemNo, s.SrNo, s.Description, s.Qty, s.Condition, s.Make, s.MakeNo,
		)
		if err != nil {
			return nil, fmt.Errorf("saving sub-item %d/%d: %w", s.ItemNo, s.SrNo, err)
		}
		keep = append(keep, s.SrNo)
	}

	query := `DELETE FROM sub_items WHERE item_no = ?`
	if len(rows) > 0 {
		query += ` AND sr_no NOT IN (` + placeholders(len(rows)) + `)`
	}
	if _, err := tx.ExecContext(ctx, query, keep...); err != nil {
		return nil, fmt.Errorf("removing dropped sub-items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, d, item.ItemNo)
}

func normalizeSubItems(itemNo int64, in []model.SubItem) ([]model.SubItem, error) {
	out := make([]model.SubItem, len(in))
	seen := make(map[int]bool, len(in))
	for i, s := range in {
		s.ItemNo = itemNo
		if s.SrNo == 0 {
			s.SrNo = i + 1
		}
		if s.SrNo < 0 {
			return nil, invalid("sr_no", "must be positive")
		}
		if seen[s.SrNo] {
			return nil, invalid("sr_no", fmt.Sprintf("duplicate serial number %d", s.SrNo))
		}
		seen[s.SrNo] = true
		if s.Qty == 0 {
			s.Qty = 1
		}
		if s.Qty < 0 {
			return nil, invalid("qty", "must be positive")
		}
		out[i] = s
	}
	return out, nil
}

// GetItem returns an item with its sub-items, or nil if it does not exist.
func GetItem(ctx context.Context, q db.Querier, itemNo int64) (*model.Item, error) {
	item := &model.Item{}
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT item_no, title, found_at, photo_mime, created_at, updated_at
		 FROM items WHERE item_no = ?`, itemNo,
	).Scan(&item.ItemNo, &item.Title, &item.FoundAt, &mime, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.PhotoMIME = mime.String

	subs, err := listSubItems(ctx, q, `WHERE s.item_no = ?`, itemNo)
	if err != nil {
		return nil, err
	}
	item.SubItems = subs
	return item, nil
}

// ListItems returns all items with their sub-items, ordered by item number.
func ListItems(ctx context.Context, q db.Querier) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_no, title, found_at, photo_mime, created_at, updated_at
		 FROM items ORDER BY item_no`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	var items []model.Item
	index := make(map[int64]int)
	for rows.Next() {
		var item model.Item
		var mime sql.NullString
		if err := rows.Scan(&item.ItemNo, &item.Title, &item.FoundAt, &mime, &item.CreatedAt, &item.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.PhotoMIME = mime.String
		item.SubItems = []model.SubItem{}
		index[item.ItemNo] = len(items)
		items = append(items, item)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	subs, err := listSubItems(ctx, q, ``)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if i, ok := index[s.ItemNo]; ok {
			items[i].SubItems = append(items[i].SubItems, s)
		}
	}
	return items, nil
}

func listSubItems(ctx context.Context, q db.Querier, where string, args ...any) ([]model.SubItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.item_no, s.sr_no, s.description, s.qty, s.condition, s.make, s.make_no, li.lot_id
		 FROM sub_items s
		 LEFT JOIN lot_items li ON li.item_no = s.item_no AND li.sr_no = s.sr_no
		 `+where+`
		 ORDER BY s.item_no, s.sr_no`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sub-items: %w", err)
	}
	defer rows.Close()

	subs := []model.SubItem{}
	for rows.Next() {
		var s model.SubItem
		var lotID sql.NullString
		if err := rows.Scan(&s.ItemNo, &s.SrNo, &s.Description, &s.Qty, &s.Condition, &s.Make, &s.MakeNo, &lotID); err != nil {
			return nil, fmt.Errorf("scanning sub-item: %w", err)
		}
		s.LotID = lotID.String
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeleteItem removes an item and its sub-items. Lots that held them lose them.
func DeleteItem(ctx context.Context, q db.Querier, itemNo int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE item_no = ?`, itemNo)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectRow(result, "item", strconv.FormatInt(itemNo, 10))
}

// SetItemPhoto stores an item's processed photo and its thumbnail.
func SetItemPhoto(ctx context.Context, q db.Querier, itemNo int64, photo, thumb []byte, mime string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_thumb = ?, photo_mime = ?, updated_at = ?
		 WHERE item_no = ?`,
		photo, thumb, mime, time.Now().UTC(), itemNo,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return expectRow(result, "item", strconv.FormatInt(itemNo, 10))
}

// GetItemPhoto returns an item's photo (or thumbnail) and MIME type.
// A nil slice means the item has no photo.
func GetItemPhoto(ctx context.Context, q db.Querier, itemNo int64, thumbnail bool) ([]byte, string, error) {
	column := "photo"
	if thumbnail {
		column = "photo_thumb"
	}

	var data []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+column+`, photo_mime FROM items WHERE item_no = ?`, itemNo,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return data, mime.String, nil
}

// placeholders returns n comma separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, 2*n-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
