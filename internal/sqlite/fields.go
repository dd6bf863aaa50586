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

const selectField = "SELECT field_id, field_name, data_type, created_at FROM custom_fields"

func scanField(row rowScanner) (*types.CustomField, error) {
	var f types.CustomField
	var dataType, createdAt string
	if err := row.Scan(&f.FieldID, &f.FieldName, &dataType, &createdAt); err != nil {
		return nil, err
	}
	f.DataType = types.DataType(dataType)
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

// FindFieldByName returns the field named name, or ErrNotFound.
func (b *Backend) FindFieldByName(name string) (*types.CustomField, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	f, err := scanField(b.db.QueryRow(selectField+" WHERE field_name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding field %q: %w", name, err)
	}
	return f, nil
}

// CreateField persists a new field. Returns ErrInvalidName for an empty
// name, ErrInvalidDataType for an unknown type and ErrDuplicateName when the
// name is taken.
func (b *Backend) CreateField(name string, dataType types.DataType) (*types.CustomField, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	if !dataType.IsValid() {
		return nil, types.ErrInvalidDataType
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	id, err := generateUUID()
	if err != nil {
		return nil, err
	}
	f := &types.CustomField{
		FieldID:   id,
		FieldName: name,
		DataType:  dataType,
		CreatedAt: time.Now().UTC(),
	}
	_, err = b.db.Exec(
		"INSERT INTO custom_fields (field_id, field_name, data_type, created_at) VALUES (?, ?, ?, ?)",
		f.FieldID, f.FieldName, string(f.DataType), formatTime(f.CreatedAt),
	)
	if isUniqueViolation(err) {
		return nil, types.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("inserting field %q: %w", name, err)
	}
	if err := b.persistLocked(fieldsJSONL); err != nil {
		return nil, err
	}
	b.log.Debug("field created", "field", name, "id", id, "data_type", dataType)
	return f, nil
}

// ListFields returns every field, oldest first.
func (b *Backend) ListFields() ([]*types.CustomField, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.listFieldsLocked()
}

func (b *Backend) listFieldsLocked() ([]*types.CustomField, error) {
	rows, err := b.db.Query(selectField + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	defer rows.Close()

	fields := []*types.CustomField{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (b *Backend) fieldExistsLocked(id string) (bool, error) {
	var one int
	err := b.db.QueryRow("SELECT 1 FROM custom_fields WHERE field_id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking field %s: %w", id, err)
	}
	return true, nil
}

func (b *Backend) persistFieldsJSONL() error {
	fields, err := b.listFieldsLocked()
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(fields))
	for _, f := range fields {
		rec, err := dehydrateField(f)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return writeJSONL(filepath.Join(b.dataDir, fieldsJSONL), records)
}
