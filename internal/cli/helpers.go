package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/larder/internal/importer"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// inputErrors are failures caused by what the user asked for or uploaded.
var inputErrors = []error{
	types.ErrMalformedTemplateBlock,
	types.ErrMissingFieldKey,
	types.ErrUnbalancedNesting,
	types.ErrUnresolvedFieldType,
	types.ErrUnresolvedImageReference,
	types.ErrInvalidDataType,
	types.ErrUnknownBlock,
	types.ErrInvalidName,
	types.ErrDuplicateName,
	types.ErrDuplicateTemplateName,
	types.ErrFieldNotFound,
	types.ErrTemplateNotFound,
	types.ErrNotFound,
	types.ErrBackendUnknown,
	types.ErrBackendEmpty,
	types.ErrSyncStrategyUnknown,
}

// classify marks err as a system error unless it is already marked or wraps
// one of inputErrors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return err
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return sysError(err)
}

// withBackend attaches a backend for the resolved config, runs fn and
// detaches. Errors from fn are classified; a failed detach is a system error.
func (a *app) withBackend(fn func(b types.Backend) error) error {
	cfg, err := a.backendConfig()
	if err != nil {
		return classify(err)
	}
	b := sqlite.NewBackend(sqlite.WithLogger(a.log))
	if err := b.Attach(cfg); err != nil {
		return sysError(fmt.Errorf("attach backend: %w", err))
	}

	runErr := fn(b)
	if err := b.Detach(); err != nil && runErr == nil {
		return sysError(fmt.Errorf("detach backend: %w", err))
	}
	return classify(runErr)
}

// withImporter is withBackend with an importer over the attached backend.
func (a *app) withImporter(fn func(im *importer.Importer, b types.Backend) error) error {
	return a.withBackend(func(b types.Backend) error {
		return fn(importer.New(b, a.log), b)
	})
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

// printTable writes header and rows as aligned, tab-separated columns.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeRow(tw, header)
	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
