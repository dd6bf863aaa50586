package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

const selectItem = `SELECT item_id, name, COALESCE(description, ''), COALESCE(tags, '[]'),
    COALESCE(template_id, ''), COALESCE(parent_id, ''), COALESCE(contained_ids, '[]'),
    COALESCE(fields, '[]'), COALESCE(image_id, ''), created_at, updated_at FROM items`

func scanItem(row rowScanner) (*types.Item, error) {
	var it types.Item
	var tags, contained, fields, createdAt, updatedAt string
	if err := row.Scan(&it.ItemID, &it.Name, &it.Description, &tags, &it.TemplateID,
		&it.ParentID, &contained, &fields, &it.ImageID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if it.Tags, err = decodeList[string](tags); err != nil {
		return nil, err
	}
	if it.ContainedIDs, err = decodeList[string](contained); err != nil {
		return nil, err
	}
	if it.Fields, err = decodeList[types.FieldValue](fields); err != nil {
		return nil, err
	}
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)
	return &it, nil
}

// CreateItem persists item under a new id and returns that id. The parent,
// template and every field must already exist: a missing parent yields
// ErrNotFound, a missing template ErrTemplateNotFound and a missing field
// ErrFieldNotFound.
func (b *Backend) CreateItem(item *types.Item) (string, error) {
	if item == nil {
		return "", types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrBackendDetached
	}
	if err := b.checkItemRefsLocked(item); err != nil {
		return "", err
	}

	id, err := generateUUID()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	rec := *item
	rec.ItemID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := b.insertItemLocked(&rec); err != nil {
		return "", err
	}
	if err := b.persistLocked(itemsJSONL); err != nil {
		return "", err
	}
	b.log.Debug("item created", "item", rec.Name, "id", id, "parent", rec.ParentID)
	return id, nil
}

func (b *Backend) checkItemRefsLocked(item *types.Item) error {
	if item.ParentID != "" {
		if _, err := b.getItemLocked(item.ParentID); err != nil {
			return fmt.Errorf("item %q parent %s: %w", item.Name, item.ParentID, err)
		}
	}
	if item.TemplateID != "" {
		ok, err := b.templateExistsLocked(item.TemplateID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("item %q template %s: %w", item.Name, item.TemplateID, types.ErrTemplateNotFound)
		}
	}
	for _, fv := range item.Fields {
		ok, err := b.fieldExistsLocked(fv.FieldID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("item %q field %s: %w", item.Name, fv.FieldID, types.ErrFieldNotFound)
		}
	}
	return nil
}

func (b *Backend) insertItemLocked(it *types.Item) error {
	tags, err := encodeList(it.Tags)
	if err != nil {
		return err
	}
	contained, err := encodeList(it.ContainedIDs)
	if err != nil {
		return err
	}
	fields, err := encodeList(it.Fields)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(
		`INSERT INTO items (item_id, name, description, tags, template_id, parent_id,
            contained_ids, fields, image_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ItemID, it.Name, it.Description, tags, nullable(it.TemplateID), nullable(it.ParentID),
		contained, fields, nullable(it.ImageID), formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting item %q: %w", it.Name, err)
	}
	return nil
}

// UpdateItem applies patch to the stored item. Returns ErrInvalidID for an
// empty id and ErrNotFound when no item has that id.
func (b *Backend) UpdateItem(id string, patch types.ItemPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	it, err := b.getItemLocked(id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Tags != nil {
		it.Tags = patch.Tags
	}
	if patch.ContainedIDs != nil {
		it.ContainedIDs = patch.ContainedIDs
	}
	if patch.ParentID != nil {
		it.ParentID = *patch.ParentID
	}
	it.UpdatedAt = time.Now().UTC()

	tags, err := encodeList(it.Tags)
	if err != nil {
		return err
	}
	contained, err := encodeList(it.ContainedIDs)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(
		`UPDATE items SET name = ?, description = ?, tags = ?, parent_id = ?,
            contained_ids = ?, updated_at = ? WHERE item_id = ?`,
		it.Name, it.Description, tags, nullable(it.ParentID), contained, formatTime(it.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", id, err)
	}
	return b.persistLocked(itemsJSONL)
}

// GetItem returns the item with the given id, or ErrNotFound.
func (b *Backend) GetItem(id string) (*types.Item, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.getItemLocked(id)
}

func (b *Backend) getItemLocked(id string) (*types.Item, error) {
	it, err := scanItem(b.db.QueryRow(selectItem+" WHERE item_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

// ListItems returns every item, oldest first.
func (b *Backend) ListItems() ([]*types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.listItemsLocked()
}

func (b *Backend) listItemsLocked() ([]*types.Item, error) {
	rows, err := b.db.Query(selectItem + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []*types.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// LoadGraph returns every stored field, template and item as one graph
// under a single read lock.
func (b *Backend) LoadGraph() (*types.Graph, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	fields, err := b.listFieldsLocked()
	if err != nil {
		return nil, err
	}
	templates, err := b.listTemplatesLocked()
	if err != nil {
		return nil, err
	}
	items, err := b.listItemsLocked()
	if err != nil {
		return nil, err
	}
	return types.AssembleGraph(fields, templates, items), nil
}

func (b *Backend) persistItemsJSONL() error {
	items, err := b.listItemsLocked()
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		rec, err := dehydrateItem(it)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return writeJSONL(filepath.Join(b.dataDir, itemsJSONL), records)
}
