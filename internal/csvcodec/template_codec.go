package csvcodec

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// DecodeTemplates parses a template block. Every template column becomes its
// own field stub keyed by a placeholder id, even when two templates share a
// field name; merging by name happens at commit time.
//
// Errors (wrapped with the 1-based row number):
//   - ErrUnknownBlock when the header is not a template header;
//   - ErrMalformedTemplateBlock when a name row has no type row after it, or
//     a row in name position has a blank name;
//   - ErrMissingFieldKey when a field name cell is empty;
//   - ErrInvalidDataType when a type cell is not a known type.
func DecodeTemplates(text string) (*types.Graph, error) {
	rows := Preprocess(text)
	if len(rows) == 0 || !isTemplateHeader(rows[0]) {
		return nil, types.ErrUnknownBlock
	}

	var ph types.Placeholders
	g := types.NewGraph()
	for i := 1; i < len(rows); i += 2 {
		nameRow := rows[i]
		if nameRow[0] == "" {
			return nil, errors.Wrapf(types.ErrMalformedTemplateBlock, "row %d: template name is blank", i+1)
		}
		if i+1 >= len(rows) {
			return nil, errors.Wrapf(types.ErrMalformedTemplateBlock, "row %d: template %q has no type row", i+1, nameRow[0])
		}
		typeRow := rows[i+1]
		if typeRow[0] != "" {
			return nil, errors.Wrapf(types.ErrMalformedTemplateBlock, "row %d: type row for %q is named %q", i+2, nameRow[0], typeRow[0])
		}

		tpl := &types.Template{
			TemplateID: ph.Template(),
			Name:       nameRow[0],
			FieldIDs:   make([]string, 0, len(nameRow)-1),
		}
		for j := 1; j < len(nameRow); j++ {
			if nameRow[j] == "" {
				return nil, errors.Wrapf(types.ErrMissingFieldKey, "row %d column %d", i+1, j+1)
			}
			dt, err := types.ParseDataType(cell(typeRow, j))
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d: %q", i+2, j+1, cell(typeRow, j))
			}
			f := &types.CustomField{
				FieldID:   ph.Field(),
				FieldName: nameRow[j],
				DataType:  dt,
			}
			g.Fields[f.FieldID] = f
			tpl.FieldIDs = append(tpl.FieldIDs, f.FieldID)
		}
		g.Templates = append(g.Templates, tpl)
	}
	return g, nil
}

// EncodeTemplates writes every template of g as a template block, fields in
// stored order. A template without fields gets a lone "," type row so the
// pair survives blank-line removal on decode. Returns ErrFieldNotFound when
// a template references a field that is not in g.
func EncodeTemplates(g *types.Graph) (string, error) {
	lines := []string{headerTemplateName}
	for _, tpl := range g.Templates {
		names := make([]string, 0, len(tpl.FieldIDs)+1)
		kinds := make([]string, 0, len(tpl.FieldIDs)+1)
		names = append(names, tpl.Name)
		kinds = append(kinds, "")
		for _, id := range tpl.FieldIDs {
			f := g.Field(id)
			if f == nil {
				return "", errors.Wrapf(types.ErrFieldNotFound, "template %q field %s", tpl.Name, id)
			}
			names = append(names, f.FieldName)
			kinds = append(kinds, string(f.DataType))
		}
		if len(kinds) == 1 {
			kinds = append(kinds, "")
		}
		lines = append(lines, strings.Join(names, ","), strings.Join(kinds, ","))
	}
	return strings.Join(lines, "\n"), nil
}
