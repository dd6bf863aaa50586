package csvcodec

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Row markers of the item block.
const (
	markerEnter = ">"
	markerExit  = "<"
)

// rowKind tags a data row of an item block.
type rowKind int

const (
	rowItem  rowKind = iota // an item's values
	rowEnter                // ">": children of the previous item follow
	rowExit                 // "<": end of the current nesting level
)

// itemRow is one data row after classification.
type itemRow struct {
	kind  rowKind
	cells []string
	num   int // 1-based row number within the block, header is 1
}

// classifyRow tags a normalized row. A marker row holds the marker in its
// first cell and nothing else.
func classifyRow(cells []string, num int) itemRow {
	r := itemRow{kind: rowItem, cells: cells, num: num}
	if !blankFrom(cells, 1) {
		return r
	}
	switch cells[0] {
	case markerEnter:
		r.kind = rowEnter
	case markerExit:
		r.kind = rowExit
	}
	return r
}

// itemLayout describes the fixed and dynamic columns of an item block.
type itemLayout struct {
	imageCol int // -1 when the block has no image column
	dynStart int
	columns  *Columns
	fieldIDs map[string]string // column name -> field stub placeholder
}

// ItemDecoder parses item blocks. Catalog supplies templates and images
// already in the store; a nil Catalog resolves nothing.
type ItemDecoder struct {
	Catalog *Catalog
	Logger  *slog.Logger
}

// DecodeItems is a convenience for (&ItemDecoder{Catalog: cat}).Decode(text).
func DecodeItems(text string, cat *Catalog) (*types.Graph, error) {
	d := &ItemDecoder{Catalog: cat}
	return d.Decode(text)
}

// Decode parses an item block into a graph keyed by placeholders. Each
// dynamic column becomes one field stub typed by InferColumnType; items
// reference those stubs. Template references resolve through the catalog to
// store ids; unknown template names are ignored.
//
// Errors (wrapped with the 1-based row number):
//   - ErrUnknownBlock when the header is not an item header;
//   - ErrMissingFieldKey when a dynamic header cell is blank;
//   - ErrUnbalancedNesting when "<" has no open level to close;
//   - ErrUnresolvedImageReference when an image name is not in the catalog.
func (d *ItemDecoder) Decode(text string) (*types.Graph, error) {
	rows := Preprocess(text)
	if len(rows) == 0 || !isItemHeader(rows[0]) {
		return nil, types.ErrUnknownBlock
	}
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var ph types.Placeholders
	g := types.NewGraph()
	layout, err := d.layout(rows, &ph, g)
	if err != nil {
		return nil, err
	}

	var (
		stack []*types.Item
		last  *types.Item
	)
	for i, cells := range rows[1:] {
		r := classifyRow(cells, i+2)
		switch r.kind {
		case rowEnter:
			if last != nil {
				stack = append(stack, last)
				last = nil
				continue
			}
			// A ">" with nothing to open is read as an ordinary item row.
			r.kind = rowItem
		case rowExit:
			if len(stack) == 0 {
				return nil, errors.Wrapf(types.ErrUnbalancedNesting, "row %d", r.num)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		it, err := d.buildItem(r, layout, &ph, log)
		if err != nil {
			return nil, err
		}
		g.Items[it.ItemID] = it
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.ContainedIDs = append(parent.ContainedIDs, it.ItemID)
			it.ParentID = parent.ItemID
		} else {
			g.Roots = append(g.Roots, it.ItemID)
		}
		last = it
	}
	return g, nil
}

// layout registers the dynamic columns, infers their types over the data
// rows, and adds one field stub per column to g.
func (d *ItemDecoder) layout(rows [][]string, ph *types.Placeholders, g *types.Graph) (*itemLayout, error) {
	header := rows[0]
	l := &itemLayout{
		imageCol: -1,
		dynStart: 3,
		columns:  NewColumns(),
		fieldIDs: make(map[string]string),
	}
	if cell(header, 3) == headerImage {
		l.imageCol = 3
		l.dynStart = 4
	}
	for j := l.dynStart; j < len(header); j++ {
		if header[j] == "" {
			return nil, errors.Wrapf(types.ErrMissingFieldKey, "row 1 column %d", j+1)
		}
		l.columns.Add(header[j], j)
	}

	data := rows[1:]
	for _, name := range l.columns.Names() {
		dt, err := l.columns.Infer(name, data)
		if err != nil {
			return nil, err
		}
		f := &types.CustomField{FieldID: ph.Field(), FieldName: name, DataType: dt}
		g.Fields[f.FieldID] = f
		l.fieldIDs[name] = f.FieldID
	}
	return l, nil
}

// buildItem turns one item row into an item stub. A column is attached when
// its value is non-blank, or when it is blank but the item's template lists
// a field of that name.
func (d *ItemDecoder) buildItem(r itemRow, l *itemLayout, ph *types.Placeholders, log *slog.Logger) (*types.Item, error) {
	it := &types.Item{
		ItemID:       ph.Item(),
		Name:         cell(r.cells, 0),
		Description:  cell(r.cells, 2),
		Tags:         []string{},
		ContainedIDs: []string{},
		Fields:       []types.FieldValue{},
	}

	var tpl *types.Template
	if name := cell(r.cells, 1); name != "" {
		tpl = d.Catalog.Template(name)
		if tpl == nil {
			log.Debug("unknown template, item imported without one", "row", r.num, "template", name)
		} else {
			it.TemplateID = tpl.TemplateID
		}
	}

	if l.imageCol >= 0 {
		if name := cell(r.cells, l.imageCol); name != "" {
			id, ok := d.Catalog.ImageID(name)
			if !ok {
				return nil, errors.Wrapf(types.ErrUnresolvedImageReference, "row %d: image %q", r.num, name)
			}
			it.ImageID = id
		}
	}

	for _, name := range l.columns.Names() {
		p, _ := l.columns.Position(name)
		v := cell(r.cells, p)
		if v == "" && !d.Catalog.TemplateHasField(tpl, name) {
			continue
		}
		it.Fields = append(it.Fields, types.FieldValue{FieldID: l.fieldIDs[name], Value: v})
	}
	return it, nil
}

// ComputeLayout returns the export column layout of g: the union of field
// names carried by items reachable from g.Roots, in order of first
// occurrence in a pre-order walk. Returns ErrFieldNotFound when an item
// references a field that is not in g.
func ComputeLayout(g *types.Graph) (*Columns, error) {
	cols := NewColumns()
	err := g.Walk(func(it *types.Item, _ int) error {
		for _, fv := range it.Fields {
			f := g.Field(fv.FieldID)
			if f == nil {
				return errors.Wrapf(types.ErrFieldNotFound, "item %q field %s", it.Name, fv.FieldID)
			}
			cols.Add(f.FieldName, cols.Len())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}

// EncodeItems writes the forest of g as an item block. The column layout is
// computed over the whole forest before any row is written, so every row has
// exactly as many cells as the header. The image column is emitted when some
// item carries an image, or when a field is named "image" so that the field
// does not land in the fourth column and decode as image names. Image ids
// resolve through cat.
func EncodeItems(g *types.Graph, cat *Catalog) (string, error) {
	cols, err := ComputeLayout(g)
	if err != nil {
		return "", err
	}

	withImage := cols.Has(headerImage)
	_ = g.Walk(func(it *types.Item, _ int) error {
		if it.ImageID != "" {
			withImage = true
		}
		return nil
	})

	header := []string{headerItemName, headerTemplate, headerDescription}
	if withImage {
		header = append(header, headerImage)
	}
	fixed := len(header)
	header = append(header, cols.Names()...)

	e := &itemEncoder{g: g, cat: cat, cols: cols, fixed: fixed, withImage: withImage}
	e.lines = append(e.lines, strings.Join(header, ","))
	for _, id := range g.Roots {
		if it := g.Item(id); it != nil {
			if err := e.encode(it, make(map[string]bool)); err != nil {
				return "", err
			}
		}
	}
	return strings.Join(e.lines, "\n"), nil
}

// itemEncoder accumulates the lines of one item export.
type itemEncoder struct {
	g         *types.Graph
	cat       *Catalog
	cols      *Columns
	fixed     int
	withImage bool
	lines     []string
}

func (e *itemEncoder) encode(it *types.Item, seen map[string]bool) error {
	if seen[it.ItemID] {
		return types.ErrCycle
	}
	seen[it.ItemID] = true

	row, err := e.row(it)
	if err != nil {
		return err
	}
	e.lines = append(e.lines, strings.Join(row, ","))

	children := e.g.Children(it)
	if len(children) == 0 {
		return nil
	}
	e.lines = append(e.lines, markerEnter)
	for _, c := range children {
		if err := e.encode(c, seen); err != nil {
			return err
		}
	}
	e.lines = append(e.lines, markerExit)
	return nil
}

// row lays out one item's cells against the fixed header.
func (e *itemEncoder) row(it *types.Item) ([]string, error) {
	cells := make([]string, e.fixed+e.cols.Len())
	cells[0] = it.Name
	if it.TemplateID != "" {
		if tpl := e.g.Template(it.TemplateID); tpl != nil {
			cells[1] = tpl.Name
		}
	}
	cells[2] = it.Description
	if e.withImage && it.ImageID != "" {
		name, ok := e.cat.ImageName(it.ImageID)
		if !ok {
			return nil, errors.Wrapf(types.ErrUnresolvedImageReference, "item %q image %s", it.Name, it.ImageID)
		}
		cells[3] = name
	}
	for _, fv := range it.Fields {
		f := e.g.Field(fv.FieldID)
		if f == nil {
			return nil, errors.Wrapf(types.ErrFieldNotFound, "item %q field %s", it.Name, fv.FieldID)
		}
		p, _ := e.cols.Position(f.FieldName)
		cells[e.fixed+p] = fv.Value
	}
	return cells, nil
}
