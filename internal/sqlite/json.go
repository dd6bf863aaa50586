package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// JSONL file names in the data directory.
const (
	fieldsJSONL    = "fields.jsonl"
	templatesJSONL = "templates.jsonl"
	itemsJSONL     = "items.jsonl"
	imagesJSONL    = "images.jsonl"
)

// fieldJSON represents a custom field in fields.jsonl.
type fieldJSON struct {
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name"`
	DataType  string `json:"data_type"`
	CreatedAt string `json:"created_at"`
}

// templateJSON represents a template in templates.jsonl.
type templateJSON struct {
	TemplateID string   `json:"template_id"`
	Name       string   `json:"name"`
	FieldIDs   []string `json:"field_ids"`
	CreatedAt  string   `json:"created_at"`
}

// itemJSON represents an item in items.jsonl.
type itemJSON struct {
	ItemID       string             `json:"item_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Tags         []string           `json:"tags"`
	TemplateID   *string            `json:"template_id"`
	ParentID     *string            `json:"parent_id"`
	ContainedIDs []string           `json:"contained_ids"`
	Fields       []types.FieldValue `json:"fields"`
	ImageID      *string            `json:"image_id"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

// imageJSON represents an image reference in images.jsonl.
type imageJSON struct {
	ImageID   string `json:"image_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// timeFormat is the on-disk timestamp layout for every table and file.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// nullable maps the empty string to a SQL/JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// encodeList serializes a list column, writing [] for nil.
func encodeList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding list column: %w", err)
	}
	return string(b), nil
}

// decodeList parses a list column; an empty column yields an empty list.
func decodeList[T any](s string) ([]T, error) {
	out := []T{}
	if s == "" || s == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding list column: %w", err)
	}
	return out, nil
}

func dehydrateField(f *types.CustomField) (json.RawMessage, error) {
	return json.Marshal(fieldJSON{
		FieldID:   f.FieldID,
		FieldName: f.FieldName,
		DataType:  string(f.DataType),
		CreatedAt: formatTime(f.CreatedAt),
	})
}

func dehydrateTemplate(t *types.Template) (json.RawMessage, error) {
	ids := t.FieldIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(templateJSON{
		TemplateID: t.TemplateID,
		Name:       t.Name,
		FieldIDs:   ids,
		CreatedAt:  formatTime(t.CreatedAt),
	})
}

func dehydrateItem(it *types.Item) (json.RawMessage, error) {
	rec := itemJSON{
		ItemID:       it.ItemID,
		Name:         it.Name,
		Description:  it.Description,
		Tags:         it.Tags,
		TemplateID:   nullable(it.TemplateID),
		ParentID:     nullable(it.ParentID),
		ContainedIDs: it.ContainedIDs,
		Fields:       it.Fields,
		ImageID:      nullable(it.ImageID),
		CreatedAt:    formatTime(it.CreatedAt),
		UpdatedAt:    formatTime(it.UpdatedAt),
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.ContainedIDs == nil {
		rec.ContainedIDs = []string{}
	}
	if rec.Fields == nil {
		rec.Fields = []types.FieldValue{}
	}
	return json.Marshal(rec)
}

func dehydrateImage(img *types.Image) (json.RawMessage, error) {
	return json.Marshal(imageJSON{
		ImageID:   img.ImageID,
		Name:      img.Name,
		CreatedAt: formatTime(img.CreatedAt),
	})
}
