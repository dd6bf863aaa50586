package types

import (
	"errors"
	"sort"
)

// ErrCycle is returned by Walk when an item is reachable twice.
var ErrCycle = errors.New("item forest contains a cycle or shared child")

// Graph is an arena of fields, templates and items keyed by identifier.
// The codec produces graphs keyed by placeholders, the reconciler turns them
// into graphs keyed by store ids, and the exporter encodes them.
type Graph struct {
	Fields    map[string]*CustomField
	Templates []*Template // Ordered as declared or loaded.
	Items     map[string]*Item
	Roots     []string // Ordered forest roots.
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Fields: make(map[string]*CustomField),
		Items:  make(map[string]*Item),
	}
}

// AssembleGraph builds a graph from flat entity lists as a store returns
// them. Items without a parent, or whose parent is not in items, become
// roots in list order.
func AssembleGraph(fields []*CustomField, templates []*Template, items []*Item) *Graph {
	g := NewGraph()
	for _, f := range fields {
		g.Fields[f.FieldID] = f
	}
	g.Templates = append(g.Templates, templates...)
	for _, it := range items {
		g.Items[it.ItemID] = it
	}
	for _, it := range items {
		if it.ParentID == "" || g.Items[it.ParentID] == nil {
			g.Roots = append(g.Roots, it.ItemID)
		}
	}
	return g
}

// Field returns the field with the given id, or nil.
func (g *Graph) Field(id string) *CustomField {
	return g.Fields[id]
}

// FieldByName returns the field named name, or nil. When a decoded graph
// holds several stubs with that name, the earliest allocated one wins.
func (g *Graph) FieldByName(name string) *CustomField {
	for _, id := range g.FieldIDs() {
		if f := g.Fields[id]; f.FieldName == name {
			return f
		}
	}
	return nil
}

// FieldIDs returns the field ids ordered by length, then lexically, which
// puts placeholders ("$f2" before "$f10") in allocation order.
func (g *Graph) FieldIDs() []string {
	ids := make([]string, 0, len(g.Fields))
	for id := range g.Fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Template returns the template with the given id, or nil.
func (g *Graph) Template(id string) *Template {
	for _, t := range g.Templates {
		if t.TemplateID == id {
			return t
		}
	}
	return nil
}

// TemplateByName returns the first template named name, or nil.
func (g *Graph) TemplateByName(name string) *Template {
	for _, t := range g.Templates {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Item returns the item with the given id, or nil.
func (g *Graph) Item(id string) *Item {
	return g.Items[id]
}

// Children returns the items listed in it.ContainedIDs, in order. Ids that
// are not in the graph are skipped.
func (g *Graph) Children(it *Item) []*Item {
	children := make([]*Item, 0, len(it.ContainedIDs))
	for _, id := range it.ContainedIDs {
		if c := g.Items[id]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Walk visits every item reachable from Roots in pre-order, passing the
// nesting depth (0 for roots). It stops at the first error fn returns and
// returns ErrCycle if an item is reached twice.
func (g *Graph) Walk(fn func(it *Item, depth int) error) error {
	seen := make(map[string]bool, len(g.Items))
	var visit func(it *Item, depth int) error
	visit = func(it *Item, depth int) error {
		if seen[it.ItemID] {
			return ErrCycle
		}
		seen[it.ItemID] = true
		if err := fn(it, depth); err != nil {
			return err
		}
		for _, c := range g.Children(it) {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range g.Roots {
		it := g.Items[id]
		if it == nil {
			continue
		}
		if err := visit(it, 0); err != nil {
			return err
		}
	}
	return nil
}
