package types

import "time"

// FieldValue pairs a custom field reference with a raw value. The value's
// semantic type is the referenced field's DataType.
type FieldValue struct {
	FieldID string `json:"field_id"`
	Value   string `json:"value"`
}

// Item is a node in the item forest.
type Item struct {
	ItemID       string       `json:"item_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags"`
	TemplateID   string       `json:"template_id,omitempty"` // Empty when the item has no template.
	ParentID     string       `json:"parent_id,omitempty"`   // Empty for roots.
	ContainedIDs []string     `json:"contained_ids"`         // Ordered child references.
	Fields       []FieldValue `json:"fields"`
	ImageID      string       `json:"image_id,omitempty"` // Opaque image reference.
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Value returns the raw value stored for fieldID and whether the item
// carries that field at all.
func (it *Item) Value(fieldID string) (string, bool) {
	for _, fv := range it.Fields {
		if fv.FieldID == fieldID {
			return fv.Value, true
		}
	}
	return "", false
}

// ItemPatch describes a partial update to a stored item. Nil fields are left
// unchanged.
type ItemPatch struct {
	Name         *string
	Description  *string
	Tags         []string
	ContainedIDs []string
	ParentID     *string
}

// Image is a named reference to externally stored image bytes.
type Image struct {
	ImageID   string    `json:"image_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
