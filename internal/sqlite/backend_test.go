package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func attachTestBackend(t *testing.T, dataDir, sync string) *Backend {
	t.Helper()
	b := NewBackend()
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir, Sync: sync})
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	err := b.Attach(config)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFile)
	}
	for _, m := range jsonlTableMapping {
		info, err := os.Stat(filepath.Join(tmpDir, m.file))
		if err != nil {
			t.Errorf("expected %s to be created: %v", m.file, err)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("expected %s to be empty, got %d bytes", m.file, info.Size())
		}
	}

	err = b.Attach(config)
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	b.Detach()
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "dolt", DataDir: t.TempDir()}, types.ErrBackendUnknown},
		{"unknown sync", types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), Sync: "batch"}, types.ErrSyncStrategyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend().Attach(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")

	_, err := b.ListFields()
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.CreateField("color", types.DataTypeString)
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.CreateItem(&types.Item{Name: "x"})
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.LoadGraph()
	assert.ErrorIs(t, err, types.ErrBackendDetached)
}

func TestFields(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "create then find by name",
			check: func(t *testing.T, b *Backend) {
				f, err := b.CreateField("color", types.DataTypeString)
				require.NoError(t, err)
				assert.NotEmpty(t, f.FieldID)
				assert.False(t, f.CreatedAt.IsZero())

				got, err := b.FindFieldByName("color")
				require.NoError(t, err)
				assert.Equal(t, f.FieldID, got.FieldID)
				assert.Equal(t, types.DataTypeString, got.DataType)
			},
		},
		{
			name: "unknown name is not found",
			check: func(t *testing.T, b *Backend) {
				_, err := b.FindFieldByName("nope")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "duplicate name",
			check: func(t *testing.T, b *Backend) {
				_, err := b.CreateField("weight", types.DataTypeNumber)
				require.NoError(t, err)
				_, err = b.CreateField("weight", types.DataTypeString)
				assert.ErrorIs(t, err, types.ErrDuplicateName)
			},
		},
		{
			name: "invalid input",
			check: func(t *testing.T, b *Backend) {
				_, err := b.CreateField("", types.DataTypeString)
				assert.ErrorIs(t, err, types.ErrInvalidName)
				_, err = b.CreateField("x", types.DataType("blob"))
				assert.ErrorIs(t, err, types.ErrInvalidDataType)
			},
		},
		{
			name: "list in creation order",
			check: func(t *testing.T, b *Backend) {
				for _, n := range []string{"zeta", "alpha", "mid"} {
					_, err := b.CreateField(n, types.DataTypeString)
					require.NoError(t, err)
				}
				fields, err := b.ListFields()
				require.NoError(t, err)
				var names []string
				for _, f := range fields {
					names = append(names, f.FieldName)
				}
				assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, attachTestBackend(t, t.TempDir(), ""))
		})
	}
}

func TestTemplates(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	color, err := b.CreateField("color", types.DataTypeString)
	require.NoError(t, err)
	size, err := b.CreateField("size", types.DataTypeNumber)
	require.NoError(t, err)

	tpl, err := b.CreateTemplate("shirt", []string{size.FieldID, color.FieldID})
	require.NoError(t, err)
	assert.Equal(t, []string{size.FieldID, color.FieldID}, tpl.FieldIDs)

	_, err = b.CreateTemplate("shirt", nil)
	assert.ErrorIs(t, err, types.ErrDuplicateTemplateName)

	_, err = b.CreateTemplate("hat", []string{"missing"})
	assert.ErrorIs(t, err, types.ErrFieldNotFound)

	_, err = b.CreateTemplate("", nil)
	assert.ErrorIs(t, err, types.ErrInvalidName)

	empty, err := b.CreateTemplate("plain", nil)
	require.NoError(t, err)

	templates, err := b.ListTemplates()
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, tpl.FieldIDs, templates[0].FieldIDs, "field order is kept")
	assert.Equal(t, empty.TemplateID, templates[1].TemplateID)
	assert.Empty(t, templates[1].FieldIDs)
}

func TestItems(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	color, err := b.CreateField("color", types.DataTypeString)
	require.NoError(t, err)
	tpl, err := b.CreateTemplate("box", []string{color.FieldID})
	require.NoError(t, err)

	parentID, err := b.CreateItem(&types.Item{
		Name:        "crate",
		Description: "wooden",
		Tags:        []string{"garage"},
		TemplateID:  tpl.TemplateID,
		Fields:      []types.FieldValue{{FieldID: color.FieldID, Value: "brown"}},
	})
	require.NoError(t, err)

	childID, err := b.CreateItem(&types.Item{ItemID: "$i9", Name: "jar", ParentID: parentID})
	require.NoError(t, err)
	assert.NotEqual(t, "$i9", childID, "the store assigns ids")

	require.NoError(t, b.UpdateItem(parentID, types.ItemPatch{ContainedIDs: []string{childID}}))

	parent, err := b.GetItem(parentID)
	require.NoError(t, err)
	assert.Equal(t, "crate", parent.Name)
	assert.Equal(t, "wooden", parent.Description)
	assert.Equal(t, []string{"garage"}, parent.Tags)
	assert.Equal(t, tpl.TemplateID, parent.TemplateID)
	assert.Equal(t, []string{childID}, parent.ContainedIDs)
	v, ok := parent.Value(color.FieldID)
	assert.True(t, ok)
	assert.Equal(t, "brown", v)
	assert.False(t, parent.UpdatedAt.Before(parent.CreatedAt))

	child, err := b.GetItem(childID)
	require.NoError(t, err)
	assert.Equal(t, parentID, child.ParentID)
	assert.Empty(t, child.TemplateID)
	assert.Empty(t, child.ContainedIDs)
	assert.NotNil(t, child.Fields)

	items, err := b.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, parentID, items[0].ItemID)
	assert.Equal(t, childID, items[1].ItemID)
}

func TestItemsErrors(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")

	_, err := b.CreateItem(&types.Item{Name: "x", ParentID: "missing"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.CreateItem(&types.Item{Name: "x", TemplateID: "missing"})
	assert.ErrorIs(t, err, types.ErrTemplateNotFound)
	_, err = b.CreateItem(&types.Item{Name: "x", Fields: []types.FieldValue{{FieldID: "missing", Value: "1"}}})
	assert.ErrorIs(t, err, types.ErrFieldNotFound)

	_, err = b.GetItem("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetItem("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.ErrorIs(t, b.UpdateItem("missing", types.ItemPatch{}), types.ErrNotFound)

	items, err := b.ListItems()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemPatchLeavesNilFieldsAlone(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	id, err := b.CreateItem(&types.Item{Name: "lamp", Description: "desk", Tags: []string{"office"}})
	require.NoError(t, err)

	name := "floor lamp"
	require.NoError(t, b.UpdateItem(id, types.ItemPatch{Name: &name}))

	it, err := b.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, "floor lamp", it.Name)
	assert.Equal(t, "desk", it.Description)
	assert.Equal(t, []string{"office"}, it.Tags)
}

func TestImages(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")

	img, err := b.RegisterImage("  dog.png ")
	require.NoError(t, err)
	assert.Equal(t, "dog.png", img.Name)

	_, err = b.RegisterImage("DOG.PNG")
	assert.ErrorIs(t, err, types.ErrDuplicateName, "image names are unique regardless of case")
	_, err = b.RegisterImage(" ")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	id, err := b.CreateItem(&types.Item{Name: "rex", ImageID: img.ImageID})
	require.NoError(t, err)
	it, err := b.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, img.ImageID, it.ImageID)

	images, err := b.ListImages()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.ImageID, images[0].ImageID)
}

func TestLoadGraph(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	f, err := b.CreateField("color", types.DataTypeString)
	require.NoError(t, err)
	_, err = b.CreateTemplate("box", []string{f.FieldID})
	require.NoError(t, err)
	root, err := b.CreateItem(&types.Item{Name: "shelf"})
	require.NoError(t, err)
	child, err := b.CreateItem(&types.Item{Name: "book", ParentID: root})
	require.NoError(t, err)
	require.NoError(t, b.UpdateItem(root, types.ItemPatch{ContainedIDs: []string{child}}))
	other, err := b.CreateItem(&types.Item{Name: "chair"})
	require.NoError(t, err)

	g, err := b.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, []string{root, other}, g.Roots)
	assert.Len(t, g.Items, 3)
	assert.NotNil(t, g.Field(f.FieldID))
	require.NotNil(t, g.TemplateByName("box"))
	children := g.Children(g.Item(root))
	require.Len(t, children, 1)
	assert.Equal(t, "book", children[0].Name)
}
