package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/internal/paths"
)

// testEnv is one isolated config and data directory pair.
type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("end-to-end command run")
	}
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	root := t.TempDir()
	return testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// larder runs one command and returns its stdout, stderr and exit code.
func (e testEnv) larder(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(root, full, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const inventory = `template name
shirt,color,size
,string,number

item name,template,description,color,size
drawer,,bedroom,,
>
tee,shirt,white tee,,m
vase,,,blue,
<
lamp,,,,`

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t)
	out, _, code := env.larder(t, "", "version")
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "larder "+Version+"\n", out)

	_, err := os.Stat(env.configDir)
	assert.True(t, os.IsNotExist(err), "version must not touch the config dir")
}

func TestInitCmd(t *testing.T) {
	env := newTestEnv(t)
	out, stderr, code := env.larder(t, "", "init")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "initialized")
	assert.Contains(t, out, env.dataDir)

	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	for _, name := range []string{"fields.jsonl", "templates.jsonl", "items.jsonl", "images.jsonl"} {
		assert.FileExists(t, filepath.Join(env.dataDir, name))
	}

	_, _, code = env.larder(t, "", "init")
	assert.Equal(t, exitSuccess, code, "init is repeatable")
}

func TestImportExportCmds(t *testing.T) {
	env := newTestEnv(t)
	file := writeFile(t, t.TempDir(), "inventory.csv", inventory)

	out, stderr, code := env.larder(t, "", "import", file)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "imported 2 block(s): 1 template(s), 4 item(s), 2 field(s) created, 2 reused\n", out)

	out, _, code = env.larder(t, "", "export", "templates")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "template name\nshirt,color,size\n,string,number\n", out)

	out, _, code = env.larder(t, "", "export", "items")
	require.Equal(t, exitSuccess, code)
	wantItems := inventory[strings.Index(inventory, "item name"):]
	assert.Equal(t, wantItems+"\n", out)

	dest := filepath.Join(t.TempDir(), "items.csv")
	out, _, code = env.larder(t, "", "export", "items", "-o", dest)
	require.Equal(t, exitSuccess, code)
	assert.Empty(t, out)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, wantItems, string(data))
}

func TestImportFromStdin(t *testing.T) {
	env := newTestEnv(t)
	out, stderr, code := env.larder(t, "item name,template,description\nbox,,", "--json", "import", "-")
	require.Equal(t, exitSuccess, code, stderr)

	var res struct {
		Blocks       int      `json:"blocks"`
		ItemsCreated int      `json:"items_created"`
		Roots        []string `json:"roots"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Blocks)
	assert.Equal(t, 1, res.ItemsCreated)
	assert.Len(t, res.Roots, 1)
}

func TestListCmd(t *testing.T) {
	env := newTestEnv(t)
	_, stderr, code := env.larder(t, inventory, "import", "-")
	require.Equal(t, exitSuccess, code, stderr)
	_, _, code = env.larder(t, "", "image", "add", "tee.png")
	require.Equal(t, exitSuccess, code)

	t.Run("fields as JSON", func(t *testing.T) {
		out, _, code := env.larder(t, "", "--json", "list", "fields")
		require.Equal(t, exitSuccess, code)
		var fields []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &fields))
		require.Len(t, fields, 2)
		assert.Equal(t, "color", fields[0]["field_name"])
		assert.Equal(t, "number", fields[1]["data_type"])
	})

	t.Run("templates table", func(t *testing.T) {
		out, _, code := env.larder(t, "", "list", "templates")
		require.Equal(t, exitSuccess, code)
		assert.Contains(t, out, "FIELDS")
		assert.Contains(t, out, "color,size")
	})

	t.Run("items indented by depth", func(t *testing.T) {
		out, _, code := env.larder(t, "", "list", "items")
		require.Equal(t, exitSuccess, code)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 5)
		assert.Contains(t, lines[1], " drawer ")
		assert.Contains(t, lines[2], "   tee ")
		assert.Contains(t, lines[2], "shirt")
	})

	t.Run("images", func(t *testing.T) {
		out, _, code := env.larder(t, "", "list", "images")
		require.Equal(t, exitSuccess, code)
		assert.Contains(t, out, "tee.png")
	})
}

func TestConfigDataDirRelativeToConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end command run")
	}
	t.Setenv(paths.EnvDataDir, "")
	configDir := t.TempDir()
	writeFile(t, configDir, "config.yaml", "backend: sqlite\ndata_dir: store\nsync: on_close\n")

	var stdout, stderr bytes.Buffer
	root := NewRootCmd(strings.NewReader(""), &stdout, &stderr)
	code := run(root, []string{"--config-dir", configDir, "image", "add", "a.png"}, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	data, err := os.ReadFile(filepath.Join(configDir, "store", "images.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a.png"`, "on_close flushes when the command detaches")
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		setup func(t *testing.T, env testEnv) testEnv
		args  []string
		want  int
	}{
		{name: "unknown command", args: []string{"frobnicate"}, want: exitUserError},
		{name: "unknown flag", args: []string{"list", "--nope", "items"}, want: exitUserError},
		{name: "unknown list entity", args: []string{"list", "widgets"}, want: exitUserError},
		{name: "unknown export", args: []string{"export", "fields"}, want: exitUserError},
		{name: "missing import file", args: []string{"import", "/does/not/exist.csv"}, want: exitUserError},
		{
			name:  "malformed block",
			stdin: "template name\nshirt,color\nbad,string",
			args:  []string{"import", "-"},
			want:  exitUserError,
		},
		{
			name:  "unknown block",
			stdin: "name,value\na,1",
			args:  []string{"import", "-"},
			want:  exitUserError,
		},
		{name: "blank image name", args: []string{"image", "add", " "}, want: exitUserError},
		{
			name: "bad sync strategy",
			setup: func(t *testing.T, env testEnv) testEnv {
				require.NoError(t, os.MkdirAll(env.configDir, 0o755))
				writeFile(t, env.configDir, "config.yaml", "backend: sqlite\nsync: sometimes\n")
				return env
			},
			args: []string{"list", "fields"},
			want: exitUserError,
		},
		{
			name: "data dir is a file",
			setup: func(t *testing.T, env testEnv) testEnv {
				env.dataDir = writeFile(t, t.TempDir(), "plain", "")
				return env
			},
			args: []string{"list", "fields"},
			want: exitSysError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				env = tt.setup(t, env)
			}
			_, stderr, code := env.larder(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			assert.True(t, strings.HasPrefix(stderr, "larder: "), "stderr %q", stderr)
		})
	}
}

func TestDuplicateImageIsUserError(t *testing.T) {
	env := newTestEnv(t)
	_, _, code := env.larder(t, "", "image", "add", "rex.png")
	require.Equal(t, exitSuccess, code)

	_, stderr, code := env.larder(t, "", "image", "add", "REX.png")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "REX.png")
}

func TestImportReportsPartialProgress(t *testing.T) {
	env := newTestEnv(t)
	upload := "item name,template,description\nbox,,\n\nitem name,template,description\n<"
	out, stderr, code := env.larder(t, upload, "import", "-")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "imported 1 block(s)")
	assert.Contains(t, stderr, "block 2")

	out, _, _ = env.larder(t, "", "export", "items")
	assert.Equal(t, "item name,template,description\nbox,,\n", out)
}
