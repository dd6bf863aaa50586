// Package importer dispatches CSV blocks to the codecs and commits them
// through the reconciler, and builds CSV exports from the store.
package importer

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/larder/internal/csvcodec"
	"github.com/mesh-intelligence/larder/internal/reconcile"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Result aggregates the commits of one Import call.
type Result struct {
	Blocks           int               `json:"blocks"`
	FieldsCreated    int               `json:"fields_created"`
	FieldsReused     int               `json:"fields_reused"`
	TemplatesCreated int               `json:"templates_created"`
	ItemsCreated     int               `json:"items_created"`
	IDMapping        map[string]string `json:"-"`
	Roots            []string          `json:"roots"`
}

func (r *Result) add(c *reconcile.Result) {
	r.FieldsCreated += c.FieldsCreated
	r.FieldsReused += c.FieldsReused
	r.TemplatesCreated += c.TemplatesCreated
	r.ItemsCreated += c.ItemsCreated
	r.Roots = append(r.Roots, c.Graph.Roots...)
}

// Importer owns the block pipeline for one store.
type Importer struct {
	store      types.Store
	reconciler *reconcile.Reconciler
	log        *slog.Logger
}

// New returns an Importer over store. A nil logger uses slog.Default().
func New(store types.Store, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		store:      store,
		reconciler: reconcile.New(store, log),
		log:        log,
	}
}

// Import decodes and commits blocks in order. Each block is committed before
// the next is decoded, so item blocks can name templates declared by an
// earlier block of the same upload. Placeholder ids are local to a block;
// the returned IDMapping keys them as "block:placeholder".
//
// Import stops at the first failing block. Blocks committed before it stay
// committed and are reflected in the returned Result.
func (im *Importer) Import(blocks []string) (*Result, error) {
	res := &Result{IDMapping: make(map[string]string)}
	for i, block := range blocks {
		kind := csvcodec.Classify(block)
		im.log.Debug("importing block", "block", i+1, "kind", kind)

		var (
			g   *types.Graph
			err error
		)
		switch kind {
		case csvcodec.BlockTemplates:
			g, err = csvcodec.DecodeTemplates(block)
		case csvcodec.BlockItems:
			g, err = im.decodeItems(block)
		default:
			err = types.ErrUnknownBlock
		}
		if err != nil {
			return res, fmt.Errorf("block %d: %w", i+1, err)
		}

		committed, err := im.reconciler.Commit(g)
		if committed != nil {
			res.add(committed)
			for ph, id := range committed.IDMapping {
				res.IDMapping[fmt.Sprintf("%d:%s", i+1, ph)] = id
			}
		}
		if err != nil {
			return res, fmt.Errorf("block %d: %w", i+1, err)
		}
		res.Blocks++
	}
	im.log.Info("import finished",
		"blocks", res.Blocks,
		"templates_created", res.TemplatesCreated,
		"items_created", res.ItemsCreated,
	)
	return res, nil
}

func (im *Importer) decodeItems(block string) (*types.Graph, error) {
	cat, err := im.catalog()
	if err != nil {
		return nil, err
	}
	d := &csvcodec.ItemDecoder{Catalog: cat, Logger: im.log}
	return d.Decode(block)
}

// catalog snapshots the store's fields, templates and images.
func (im *Importer) catalog() (*csvcodec.Catalog, error) {
	fields, err := im.store.ListFields()
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	templates, err := im.store.ListTemplates()
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	images, err := im.store.ListImages()
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return csvcodec.NewCatalog(fields, templates, images), nil
}

// graphLoader is implemented by stores that can snapshot themselves in one
// consistent read.
type graphLoader interface {
	LoadGraph() (*types.Graph, error)
}

// Graph assembles everything in the store into one graph.
func (im *Importer) Graph() (*types.Graph, error) {
	if gl, ok := im.store.(graphLoader); ok {
		return gl.LoadGraph()
	}
	fields, err := im.store.ListFields()
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	templates, err := im.store.ListTemplates()
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	items, err := im.store.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return types.AssembleGraph(fields, templates, items), nil
}

// ExportTemplates returns every stored template as a template block.
func (im *Importer) ExportTemplates() (string, error) {
	g, err := im.Graph()
	if err != nil {
		return "", err
	}
	return csvcodec.EncodeTemplates(g)
}

// ExportItems returns the stored item forest as an item block.
func (im *Importer) ExportItems() (string, error) {
	g, err := im.Graph()
	if err != nil {
		return "", err
	}
	cat, err := im.catalog()
	if err != nil {
		return "", err
	}
	return csvcodec.EncodeItems(g, cat)
}
