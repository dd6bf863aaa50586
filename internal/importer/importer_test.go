package importer

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/internal/csvcodec"
	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newTestImporter(t *testing.T) (*Importer, *sqlite.Backend) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	b := sqlite.NewBackend(sqlite.WithLogger(log))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return New(b, log), b
}

const upload = `template name
shirt,color,size
,string,number

item name,template,description,color,size,fragile
drawer,,bedroom,,,
>
tee,shirt,white tee,,m,
vase,,,blue,,true
<
lamp,,,,,0`

func TestImportTemplatesThenItems(t *testing.T) {
	im, b := newTestImporter(t)

	res, err := im.Import(csvcodec.SplitBlocks(upload))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Blocks)
	assert.Equal(t, 1, res.TemplatesCreated)
	assert.Equal(t, 4, res.ItemsCreated)
	assert.Equal(t, 3, res.FieldsCreated, "color and size, then fragile")
	assert.Equal(t, 2, res.FieldsReused, "the item block reuses color and size")
	require.Len(t, res.Roots, 2)

	for key, id := range res.IDMapping {
		assert.Contains(t, key, ":$")
		assert.False(t, types.IsPlaceholder(id))
	}

	fields, err := b.ListFields()
	require.NoError(t, err)
	assert.Len(t, fields, 3)

	g, err := b.LoadGraph()
	require.NoError(t, err)
	drawer := g.Item(res.Roots[0])
	require.NotNil(t, drawer)
	children := g.Children(drawer)
	require.Len(t, children, 2)

	tee := children[0]
	shirt := g.TemplateByName("shirt")
	require.NotNil(t, shirt)
	assert.Equal(t, shirt.TemplateID, tee.TemplateID, "items resolve templates from an earlier block")
	assert.Equal(t, drawer.ItemID, tee.ParentID)
	assert.Len(t, tee.Fields, 2, "blank color kept because shirt lists it")

	fragile, err := b.FindFieldByName("fragile")
	require.NoError(t, err)
	assert.Equal(t, types.DataTypeBoolean, fragile.DataType)
}

func TestImportExportRoundTrip(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.Import(csvcodec.SplitBlocks(upload))
	require.NoError(t, err)

	templates, err := im.ExportTemplates()
	require.NoError(t, err)
	assert.Equal(t, "template name\nshirt,color,size\n,string,number", templates)

	items, err := im.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"item name,template,description,color,size,fragile",
		"drawer,,bedroom,,,",
		">",
		"tee,shirt,white tee,,m,",
		"vase,,,blue,,true",
		"<",
		"lamp,,,,,0",
	}, "\n"), items)

	// A second store fed the export reproduces it.
	im2, _ := newTestImporter(t)
	_, err = im2.Import([]string{templates, items})
	require.NoError(t, err)
	again, err := im2.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, items, again)
}

func TestImportDogExample(t *testing.T) {
	im, _ := newTestImporter(t)
	dog := "item name,template,description\n" +
		"dog,,a german shepherd\n" +
		">\n" +
		"collar,,a blue collar with a dog tag\n" +
		"<"

	res, err := im.Import([]string{dog})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsCreated)
	assert.Zero(t, res.FieldsCreated)

	out, err := im.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, dog, out)
}

func TestImportImages(t *testing.T) {
	im, b := newTestImporter(t)
	img, err := b.RegisterImage("rex.png")
	require.NoError(t, err)

	_, err = im.Import([]string{"item name,template,description,image\nrex,,good dog,REX.png"})
	require.NoError(t, err)

	items, err := b.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, img.ImageID, items[0].ImageID)

	out, err := im.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, "item name,template,description,image\nrex,,good dog,rex.png", out)

	_, err = im.Import([]string{"item name,template,description,image\ncat,,,tom.png"})
	assert.ErrorIs(t, err, types.ErrUnresolvedImageReference)
}

func TestImportFieldNamedImageRoundTrips(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.Import([]string{"item name,template,description,color,image\nbox,,,,front"})
	require.NoError(t, err)

	out, err := im.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, "item name,template,description,image,image\nbox,,,,front", out)

	im2, b2 := newTestImporter(t)
	_, err = im2.Import([]string{out})
	require.NoError(t, err, "an image-named field must not be read as the image column")
	items, err := b2.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].ImageID)

	again, err := im2.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		blocks  []string
		wantErr error
	}{
		{"unknown header", []string{"name,value\na,1"}, types.ErrUnknownBlock},
		{"malformed template", []string{"template name\nshirt,color\nbad,string"}, types.ErrMalformedTemplateBlock},
		{"unbalanced nesting", []string{"item name,template,description\n<"}, types.ErrUnbalancedNesting},
		{"duplicate template", []string{"template name\nhat\n,", "template name\nhat\n,"}, types.ErrDuplicateTemplateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, _ := newTestImporter(t)
			_, err := im.Import(tt.blocks)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestImportStopsAtFailingBlock(t *testing.T) {
	im, b := newTestImporter(t)
	res, err := im.Import([]string{
		"item name,template,description\nbox,,",
		"item name,template,description\n<",
		"item name,template,description\nnever,,",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 2")
	assert.Equal(t, 1, res.Blocks)
	assert.Equal(t, 1, res.ItemsCreated)

	items, err := b.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "box", items[0].Name)
}

func TestExportEmptyStore(t *testing.T) {
	im, _ := newTestImporter(t)

	templates, err := im.ExportTemplates()
	require.NoError(t, err)
	assert.Equal(t, "template name", templates)

	items, err := im.ExportItems()
	require.NoError(t, err)
	assert.Equal(t, "item name,template,description", items)
}
