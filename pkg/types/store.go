package types

// Store is the persistence collaborator the reconciler and the exporter work
// against. The store is the sole authority on identifiers: every Create
// method assigns the id it returns.
type Store interface {
	// FindFieldByName returns the field with the given name, or ErrNotFound.
	FindFieldByName(name string) (*CustomField, error)

	// CreateField persists a new field. Returns ErrDuplicateName when a
	// field with that name already exists.
	CreateField(name string, dataType DataType) (*CustomField, error)

	// ListFields returns every field, oldest first.
	ListFields() ([]*CustomField, error)

	// CreateTemplate persists a template over existing field ids. Returns
	// ErrDuplicateTemplateName on a name collision and ErrFieldNotFound when
	// a field id does not exist.
	CreateTemplate(name string, fieldIDs []string) (*Template, error)

	// ListTemplates returns every template, oldest first.
	ListTemplates() ([]*Template, error)

	// CreateItem persists item and returns its assigned id. ItemID on the
	// argument is ignored.
	CreateItem(item *Item) (string, error)

	// UpdateItem applies patch to the stored item. Returns ErrNotFound if
	// no item has that id.
	UpdateItem(id string, patch ItemPatch) error

	// GetItem returns the item with the given id, or ErrNotFound.
	GetItem(id string) (*Item, error)

	// ListItems returns every item, oldest first.
	ListItems() ([]*Item, error)

	// ListImages returns every registered image reference.
	ListImages() ([]*Image, error)
}

// Backend is a Store with a lifecycle. Attach opens the store described by a
// Config; Detach flushes and releases it. After Detach every Store method
// returns ErrBackendDetached.
type Backend interface {
	Store

	Attach(config Config) error
	Detach() error

	// RegisterImage records a named image reference. Returns
	// ErrDuplicateName when the name is taken.
	RegisterImage(name string) (*Image, error)
	// LoadGraph returns every field, template and item as one graph.
	LoadGraph() (*Graph, error)
}
