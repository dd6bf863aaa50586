package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// lister returns entities for JSON output plus a table rendering of them.
type lister func(b types.Backend) (any, []string, [][]string, error)

var listers = map[string]lister{
	"fields":    listFields,
	"templates": listTemplates,
	"items":     listItems,
	"images":    listImages,
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list fields|templates|items|images",
		Short:     "List stored entities",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"fields", "templates", "items", "images"},
		RunE: func(cmd *cobra.Command, args []string) error {
			list, ok := listers[args[0]]
			if !ok {
				return fmt.Errorf("unknown entity %q (want fields, templates, items or images)", args[0])
			}
			var (
				header []string
				rows   [][]string
				out    any
			)
			err := a.withBackend(func(b types.Backend) error {
				var err error
				out, header, rows, err = list(b)
				return err
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(out)
			}
			return printTable(a.stdout, header, rows)
		},
	}
}

func listFields(b types.Backend) (any, []string, [][]string, error) {
	fields, err := b.ListFields()
	if err != nil {
		return nil, nil, nil, err
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{f.FieldID, f.FieldName, string(f.DataType)})
	}
	return fields, []string{"ID", "NAME", "TYPE"}, rows, nil
}

func listTemplates(b types.Backend) (any, []string, [][]string, error) {
	g, err := b.LoadGraph()
	if err != nil {
		return nil, nil, nil, err
	}
	rows := make([][]string, 0, len(g.Templates))
	for _, t := range g.Templates {
		names := make([]string, 0, len(t.FieldIDs))
		for _, id := range t.FieldIDs {
			if f := g.Field(id); f != nil {
				names = append(names, f.FieldName)
			}
		}
		rows = append(rows, []string{t.TemplateID, t.Name, strings.Join(names, ",")})
	}
	return g.Templates, []string{"ID", "NAME", "FIELDS"}, rows, nil
}

func listItems(b types.Backend) (any, []string, [][]string, error) {
	g, err := b.LoadGraph()
	if err != nil {
		return nil, nil, nil, err
	}
	items := make([]*types.Item, 0, len(g.Items))
	rows := make([][]string, 0, len(g.Items))
	err = g.Walk(func(it *types.Item, depth int) error {
		tmpl := ""
		if t := g.Template(it.TemplateID); t != nil {
			tmpl = t.Name
		}
		items = append(items, it)
		rows = append(rows, []string{it.ItemID, strings.Repeat("  ", depth) + it.Name, tmpl, it.Description})
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return items, []string{"ID", "NAME", "TEMPLATE", "DESCRIPTION"}, rows, nil
}

func listImages(b types.Backend) (any, []string, [][]string, error) {
	images, err := b.ListImages()
	if err != nil {
		return nil, nil, nil, err
	}
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		rows = append(rows, []string{img.ImageID, img.Name})
	}
	return images, []string{"ID", "NAME"}, rows, nil
}
