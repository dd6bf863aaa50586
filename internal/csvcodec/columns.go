package csvcodec

import (
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Columns is the ordered, deduplicated set of dynamic field-name columns of
// one decode or one encode. Decoding registers each column with its position
// in the header; encoding registers names only, in layout order.
type Columns struct {
	names []string
	pos   map[string]int
	types map[string]types.DataType
}

// NewColumns returns an empty column set.
func NewColumns() *Columns {
	return &Columns{
		pos:   make(map[string]int),
		types: make(map[string]types.DataType),
	}
}

// Add registers name at header position pos. It reports false, leaving the
// first registration in place, when name is already present.
func (c *Columns) Add(name string, pos int) bool {
	if _, ok := c.pos[name]; ok {
		return false
	}
	c.names = append(c.names, name)
	c.pos[name] = pos
	return true
}

// Names returns the column names in registration order.
func (c *Columns) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of registered columns.
func (c *Columns) Len() int {
	return len(c.names)
}

// Has reports whether name is registered.
func (c *Columns) Has(name string) bool {
	_, ok := c.pos[name]
	return ok
}

// Position returns the header position name was registered at.
func (c *Columns) Position(name string) (int, bool) {
	p, ok := c.pos[name]
	return p, ok
}

// Infer runs InferColumnType over the data rows at name's header position
// and records the result. Returns ErrUnresolvedFieldType when name was never
// registered.
func (c *Columns) Infer(name string, rows [][]string) (types.DataType, error) {
	p, ok := c.pos[name]
	if !ok {
		return "", errors.Wrapf(types.ErrUnresolvedFieldType, "column %q", name)
	}
	dt := InferColumnType(rows, p)
	c.types[name] = dt
	return dt, nil
}

// TypeOf returns the inferred type of name. Returns ErrUnresolvedFieldType
// when name was never registered or never inferred.
func (c *Columns) TypeOf(name string) (types.DataType, error) {
	dt, ok := c.types[name]
	if !ok {
		return "", errors.Wrapf(types.ErrUnresolvedFieldType, "column %q", name)
	}
	return dt, nil
}
