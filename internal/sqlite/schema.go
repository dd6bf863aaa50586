package sqlite

// Schema DDL. Every entity table keeps its implicit rowid, which records
// insertion order; list queries and JSONL files follow it.
const (
	createCustomFields = `CREATE TABLE custom_fields (
    field_id TEXT PRIMARY KEY,
    field_name TEXT NOT NULL UNIQUE,
    data_type TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createTemplates = `CREATE TABLE templates (
    template_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    field_ids TEXT,
    created_at TEXT NOT NULL
);`

	createImages = `CREATE TABLE images (
    image_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE COLLATE NOCASE,
    created_at TEXT NOT NULL
);`

	createItems = `CREATE TABLE items (
    item_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    tags TEXT,
    template_id TEXT,
    parent_id TEXT,
    contained_ids TEXT,
    fields TEXT,
    image_id TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxItemsParent   = `CREATE INDEX idx_items_parent ON items(parent_id);`
	idxItemsTemplate = `CREATE INDEX idx_items_template ON items(template_id);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createCustomFields,
	createTemplates,
	createImages,
	createItems,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsParent,
	idxItemsTemplate,
}
