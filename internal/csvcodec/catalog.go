package csvcodec

import (
	"strings"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Catalog holds the already-persisted entities an item decode resolves
// names against: templates by name (with their field names) and images by
// name. Encoding uses it to turn image ids back into names. Lookups are
// case-insensitive because decoded cells are lowercased.
type Catalog struct {
	templates  map[string]*types.Template
	fieldNames map[string]string // field id -> lowercased name
	imageIDs   map[string]string // lowercased name -> id
	imageNames map[string]string // id -> name
}

// NewCatalog indexes the given entities. Any argument may be nil.
func NewCatalog(fields []*types.CustomField, templates []*types.Template, images []*types.Image) *Catalog {
	c := &Catalog{
		templates:  make(map[string]*types.Template, len(templates)),
		fieldNames: make(map[string]string, len(fields)),
		imageIDs:   make(map[string]string, len(images)),
		imageNames: make(map[string]string, len(images)),
	}
	for _, f := range fields {
		c.fieldNames[f.FieldID] = strings.ToLower(f.FieldName)
	}
	for _, t := range templates {
		key := strings.ToLower(t.Name)
		if _, dup := c.templates[key]; !dup {
			c.templates[key] = t
		}
	}
	for _, img := range images {
		c.imageIDs[strings.ToLower(img.Name)] = img.ImageID
		c.imageNames[img.ImageID] = img.Name
	}
	return c
}

// Template returns the template named name, or nil.
func (c *Catalog) Template(name string) *types.Template {
	if c == nil {
		return nil
	}
	return c.templates[strings.ToLower(name)]
}

// TemplateHasField reports whether t lists a field called name.
func (c *Catalog) TemplateHasField(t *types.Template, name string) bool {
	if c == nil || t == nil {
		return false
	}
	name = strings.ToLower(name)
	for _, id := range t.FieldIDs {
		if c.fieldNames[id] == name {
			return true
		}
	}
	return false
}

// ImageID resolves an image name.
func (c *Catalog) ImageID(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.imageIDs[strings.ToLower(name)]
	return id, ok
}

// ImageName resolves an image id.
func (c *Catalog) ImageName(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.imageNames[id]
	return name, ok
}
