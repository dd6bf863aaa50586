// Package reconcile commits parsed graphs to a types.Store.
//
// A parsed graph names its fields, templates and items with placeholder ids.
// The store is the only authority on real ids, so the reconciler commits in
// dependency order (fields, then templates, then items parent-first),
// records every placeholder -> id translation, and rebuilds the graph with
// real ids only. Nothing is rolled back on failure: entities committed
// before the error stay committed.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Result reports one commit.
type Result struct {
	IDMapping map[string]string // placeholder -> store id
	Graph     *types.Graph      // committed entities, keyed by store id

	FieldsCreated    int
	FieldsReused     int
	TemplatesCreated int
	ItemsCreated     int
}

// NewResult returns an empty result ready for the Commit* methods.
func NewResult() *Result {
	return &Result{
		IDMapping: make(map[string]string),
		Graph:     types.NewGraph(),
	}
}

// Resolve translates id through the mapping. Ids that are not placeholders
// already belong to the store and resolve to themselves.
func (r *Result) Resolve(id string) (string, bool) {
	if !types.IsPlaceholder(id) {
		return id, true
	}
	resolved, ok := r.IDMapping[id]
	return resolved, ok
}

// Reconciler commits graphs against a store. It is safe for concurrent use;
// find-or-create of a field name is linearized across concurrent commits.
type Reconciler struct {
	store  types.Store
	log    *slog.Logger
	fields singleflight.Group
}

// New returns a Reconciler over store. A nil logger uses slog.Default().
func New(store types.Store, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log}
}

// Commit runs CommitFields, CommitTemplates and CommitItems over g.
func (r *Reconciler) Commit(g *types.Graph) (*Result, error) {
	res := NewResult()
	if err := r.CommitFields(g, res); err != nil {
		return res, err
	}
	if err := r.CommitTemplates(g, res); err != nil {
		return res, err
	}
	if err := r.CommitItems(g, res); err != nil {
		return res, err
	}
	r.log.Info("commit finished",
		"fields_created", res.FieldsCreated,
		"fields_reused", res.FieldsReused,
		"templates_created", res.TemplatesCreated,
		"items_created", res.ItemsCreated,
	)
	return res, nil
}

// CommitFields maps every field stub of g onto a stored field with the same
// name, creating it when none exists. Stubs that already carry a store id
// are copied through.
func (r *Reconciler) CommitFields(g *types.Graph, res *Result) error {
	for _, id := range g.FieldIDs() {
		stub := g.Fields[id]
		if !types.IsPlaceholder(id) {
			res.Graph.Fields[id] = stub
			continue
		}
		if stub.FieldName == "" {
			return fmt.Errorf("field %s: %w", id, types.ErrInvalidName)
		}

		f, created, err := r.findOrCreateField(stub.FieldName, stub.DataType)
		if err != nil {
			return err
		}
		if created {
			res.FieldsCreated++
		} else {
			res.FieldsReused++
			if f.DataType != stub.DataType {
				r.log.Warn("reusing field with a different data type",
					"field", f.FieldName, "stored", f.DataType, "parsed", stub.DataType)
			}
		}
		res.IDMapping[id] = f.FieldID
		res.Graph.Fields[f.FieldID] = f
		r.log.Debug("field committed", "placeholder", id, "field", f.FieldName, "id", f.FieldID, "created", created)
	}
	return nil
}

// fieldOutcome is the result of one shared find-or-create. Every caller that
// joins the call receives it; only the caller that wins claim reports the
// field as created, the others count it as reused.
type fieldOutcome struct {
	field   *types.CustomField
	created bool
	claim   *atomic.Bool
}

// findOrCreateField returns the stored field called name, creating it with
// dataType when absent. Concurrent calls for one name share a single store
// round trip; a uniqueness violation on create means another writer won and
// the field is fetched again.
func (r *Reconciler) findOrCreateField(name string, dataType types.DataType) (*types.CustomField, bool, error) {
	v, err, _ := r.fields.Do(name, func() (any, error) {
		f, err := r.store.FindFieldByName(name)
		if err == nil {
			return fieldOutcome{field: f}, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("finding field %q: %w", name, err)
		}

		f, err = r.store.CreateField(name, dataType)
		if errors.Is(err, types.ErrDuplicateName) {
			f, err = r.store.FindFieldByName(name)
			if err != nil {
				return nil, fmt.Errorf("refetching field %q: %w", name, err)
			}
			return fieldOutcome{field: f}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("creating field %q: %w", name, err)
		}
		return fieldOutcome{field: f, created: true, claim: new(atomic.Bool)}, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := v.(fieldOutcome)
	created := out.created && out.claim.CompareAndSwap(false, true)
	return out.field, created, nil
}

// CommitTemplates rewrites each template's field list through the mapping
// and persists it. A name collision surfaces as ErrDuplicateTemplateName
// from the store. CommitFields must have run first.
func (r *Reconciler) CommitTemplates(g *types.Graph, res *Result) error {
	for _, stub := range g.Templates {
		if !types.IsPlaceholder(stub.TemplateID) {
			res.Graph.Templates = append(res.Graph.Templates, stub)
			continue
		}
		fieldIDs := make([]string, len(stub.FieldIDs))
		for i, id := range stub.FieldIDs {
			resolved, ok := res.Resolve(id)
			if !ok {
				return fmt.Errorf("template %q field %s: %w", stub.Name, id, types.ErrFieldNotFound)
			}
			fieldIDs[i] = resolved
		}

		tpl, err := r.store.CreateTemplate(stub.Name, fieldIDs)
		if err != nil {
			return fmt.Errorf("creating template %q: %w", stub.Name, err)
		}
		res.IDMapping[stub.TemplateID] = tpl.TemplateID
		res.Graph.Templates = append(res.Graph.Templates, tpl)
		res.TemplatesCreated++
		r.log.Debug("template committed", "placeholder", stub.TemplateID, "template", tpl.Name, "id", tpl.TemplateID)
	}
	return nil
}

// CommitItems persists the forest of g depth-first. Each item is created with
// its parent's store id and no children; once its own id is known its
// children are committed, and the item is then updated with their ids. When
// a descendant fails, the children committed before it are still linked to
// their parent and the committed part of the forest stays in res.Graph.
// CommitFields (and CommitTemplates, for template references) must have run
// first.
func (r *Reconciler) CommitItems(g *types.Graph, res *Result) error {
	seen := make(map[string]bool, len(g.Items))
	for _, id := range g.Roots {
		realID, err := r.commitItem(g, id, "", res, seen)
		if realID != "" {
			res.Graph.Roots = append(res.Graph.Roots, realID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) commitItem(g *types.Graph, id, parentID string, res *Result, seen map[string]bool) (string, error) {
	stub := g.Item(id)
	if stub == nil {
		return "", fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	if seen[id] {
		return "", fmt.Errorf("item %q: %w", stub.Name, types.ErrCycle)
	}
	seen[id] = true

	rec := &types.Item{
		Name:         stub.Name,
		Description:  stub.Description,
		Tags:         append([]string{}, stub.Tags...),
		ParentID:     parentID,
		ContainedIDs: []string{},
		Fields:       make([]types.FieldValue, 0, len(stub.Fields)),
		ImageID:      stub.ImageID,
	}
	if stub.TemplateID != "" {
		tplID, ok := res.Resolve(stub.TemplateID)
		if !ok {
			return "", fmt.Errorf("item %q template %s: %w", stub.Name, stub.TemplateID, types.ErrTemplateNotFound)
		}
		rec.TemplateID = tplID
	}
	for _, fv := range stub.Fields {
		fieldID, ok := res.Resolve(fv.FieldID)
		if !ok {
			return "", fmt.Errorf("item %q field %s: %w", stub.Name, fv.FieldID, types.ErrFieldNotFound)
		}
		rec.Fields = append(rec.Fields, types.FieldValue{FieldID: fieldID, Value: fv.Value})
	}

	realID, err := r.store.CreateItem(rec)
	if err != nil {
		return "", fmt.Errorf("creating item %q: %w", stub.Name, err)
	}
	rec.ItemID = realID
	if types.IsPlaceholder(id) {
		res.IDMapping[id] = realID
	}
	res.ItemsCreated++
	r.log.Debug("item committed", "placeholder", id, "item", rec.Name, "id", realID, "parent", parentID)

	var childErr error
	for _, childID := range stub.ContainedIDs {
		realChild, err := r.commitItem(g, childID, realID, res, seen)
		if realChild != "" {
			rec.ContainedIDs = append(rec.ContainedIDs, realChild)
		}
		if err != nil {
			childErr = err
			break
		}
	}
	// Children committed before a failure are still linked so that ParentID
	// and ContainedIDs stay mutual inverses in the store.
	if len(rec.ContainedIDs) > 0 {
		if err := r.store.UpdateItem(realID, types.ItemPatch{ContainedIDs: rec.ContainedIDs}); err != nil {
			if childErr == nil {
				childErr = fmt.Errorf("linking children of %q: %w", rec.Name, err)
			} else {
				r.log.Warn("linking committed children failed", "item", rec.Name, "id", realID, "error", err)
			}
		}
	}

	res.Graph.Items[realID] = rec
	return realID, childErr
}
