package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column
// lists, in load order.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{fieldsJSONL, "custom_fields", []string{"field_id", "field_name", "data_type", "created_at"}},
	{templatesJSONL, "templates", []string{"template_id", "name", "field_ids", "created_at"}},
	{imagesJSONL, "images", []string{"image_id", "name", "created_at"}},
	{itemsJSONL, "items", []string{"item_id", "name", "description", "tags", "template_id", "parent_id", "contained_ids", "fields", "image_id", "created_at", "updated_at"}},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the matching table inside one transaction: either every file loads
// or the database stays empty. Malformed lines, records missing required
// columns and records that violate a constraint are skipped. Unknown fields
// in a record are ignored.
func loadAllJSONL(db *sql.DB, dataDir string, log *slog.Logger) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		loaded, err := insertRecords(tx, mapping.table, mapping.columns, records)
		if err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
		if skipped := len(records) - loaded; skipped > 0 {
			log.Warn("skipped unloadable records", "file", mapping.file, "skipped", skipped)
		}
		log.Debug("loaded jsonl", "file", mapping.file, "records", loaded)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into table and returns how many
// were inserted. Only the listed columns are read from each record. List and
// object values are stored as their JSON text.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	loaded := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				args[i] = nil
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = nil
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		loaded++
	}
	return loaded, nil
}
