package types

import "time"

// Template is a named, ordered list of custom fields. The order defines the
// default field layout for items that use the template.
type Template struct {
	TemplateID string    `json:"template_id"`
	Name       string    `json:"name"`      // Unique name.
	FieldIDs   []string  `json:"field_ids"` // Ordered custom field references.
	CreatedAt  time.Time `json:"created_at"`
}

// HasField reports whether fieldID is part of the template's field list.
func (t *Template) HasField(fieldID string) bool {
	for _, id := range t.FieldIDs {
		if id == fieldID {
			return true
		}
	}
	return false
}
