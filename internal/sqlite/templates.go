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

const selectTemplate = "SELECT template_id, name, COALESCE(field_ids, '[]'), created_at FROM templates"

func scanTemplate(row rowScanner) (*types.Template, error) {
	var t types.Template
	var fieldIDs, createdAt string
	if err := row.Scan(&t.TemplateID, &t.Name, &fieldIDs, &createdAt); err != nil {
		return nil, err
	}
	ids, err := decodeList[string](fieldIDs)
	if err != nil {
		return nil, err
	}
	t.FieldIDs = ids
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// CreateTemplate persists a template over existing field ids. Returns
// ErrInvalidName for an empty name, ErrFieldNotFound when a field id is
// unknown and ErrDuplicateTemplateName when the name is taken.
func (b *Backend) CreateTemplate(name string, fieldIDs []string) (*types.Template, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	for _, fid := range fieldIDs {
		ok, err := b.fieldExistsLocked(fid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("template %q field %s: %w", name, fid, types.ErrFieldNotFound)
		}
	}

	id, err := generateUUID()
	if err != nil {
		return nil, err
	}
	t := &types.Template{
		TemplateID: id,
		Name:       name,
		FieldIDs:   append([]string{}, fieldIDs...),
		CreatedAt:  time.Now().UTC(),
	}
	ids, err := encodeList(t.FieldIDs)
	if err != nil {
		return nil, err
	}
	_, err = b.db.Exec(
		"INSERT INTO templates (template_id, name, field_ids, created_at) VALUES (?, ?, ?, ?)",
		t.TemplateID, t.Name, ids, formatTime(t.CreatedAt),
	)
	if isUniqueViolation(err) {
		return nil, types.ErrDuplicateTemplateName
	}
	if err != nil {
		return nil, fmt.Errorf("inserting template %q: %w", name, err)
	}
	if err := b.persistLocked(templatesJSONL); err != nil {
		return nil, err
	}
	b.log.Debug("template created", "template", name, "id", id, "fields", len(fieldIDs))
	return t, nil
}

// ListTemplates returns every template, oldest first.
func (b *Backend) ListTemplates() ([]*types.Template, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.listTemplatesLocked()
}

func (b *Backend) listTemplatesLocked() ([]*types.Template, error) {
	rows, err := b.db.Query(selectTemplate + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	templates := []*types.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (b *Backend) templateExistsLocked(id string) (bool, error) {
	var one int
	err := b.db.QueryRow("SELECT 1 FROM templates WHERE template_id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking template %s: %w", id, err)
	}
	return true, nil
}

func (b *Backend) persistTemplatesJSONL() error {
	templates, err := b.listTemplatesLocked()
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(templates))
	for _, t := range templates {
		rec, err := dehydrateTemplate(t)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return writeJSONL(filepath.Join(b.dataDir, templatesJSONL), records)
}
