// Package format renders heterogeneous tool payloads into textual
// reports. A factory picks the first formatter claiming a tool, with a
// generic fallback, and turns render failures into a short apologetic
// note so formatting never aborts the pipeline.
package format

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/freitext-dev/freitext/pkg/observability"
)

// Formatter renders one category of tool payload.
type Formatter interface {
	// Name identifies the formatter in logs and metrics.
	Name() string

	// CanHandle reports whether this formatter renders results for
	// the tool. The category comes from InferCategory.
	CanHandle(toolName, category string) bool

	// Format renders the payload into a textual report.
	Format(data json.RawMessage, toolName string, m *Mappings) (string, error)
}

// Factory selects a formatter per tool and guards rendering.
type Factory struct {
	formatters []Formatter
	store      *Store
}

// NewFactory creates a factory with the standard formatter chain:
// record, stats, then the generic fallback. The store supplies field
// mappings; a nil store uses the built-in defaults.
func NewFactory(store *Store) *Factory {
	if store == nil {
		store = NewStore()
	}
	return &Factory{
		formatters: []Formatter{
			&RecordFormatter{},
			&StatsFormatter{},
			&GenericFormatter{},
		},
		store: store,
	}
}

// NewFactoryWith creates a factory over an explicit formatter chain,
// consulted in order. Intended for tests and embedders adding domain
// formatters.
func NewFactoryWith(store *Store, formatters ...Formatter) *Factory {
	if store == nil {
		store = NewStore()
	}
	return &Factory{formatters: formatters, store: store}
}

// FormatToolResult renders a tool payload. It never fails: a formatter
// error or panic yields an apologetic note naming the tool and the
// problem.
func (f *Factory) FormatToolResult(data json.RawMessage, toolName string) string {
	category := InferCategory(toolName)
	mappings := f.store.Mappings()

	for _, formatter := range f.formatters {
		if !formatter.CanHandle(toolName, category) {
			continue
		}
		out, err := f.render(formatter, data, toolName, mappings)
		if err != nil {
			slog.Warn("formatter failed",
				"formatter", formatter.Name(),
				"tool", toolName,
				"error", err,
			)
			observability.FormatterRendersTotal.WithLabelValues(formatter.Name(), "error").Inc()
			return apology(toolName, err)
		}
		observability.FormatterRendersTotal.WithLabelValues(formatter.Name(), "success").Inc()
		return out
	}

	// The generic formatter accepts everything, so this is only
	// reachable with a custom chain.
	observability.FormatterRendersTotal.WithLabelValues("none", "unhandled").Inc()
	return apology(toolName, fmt.Errorf("no formatter accepts this tool"))
}

// render invokes a formatter with a panic guard.
func (f *Factory) render(formatter Formatter, data json.RawMessage, toolName string, m *Mappings) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("formatter panicked: %v", rec)
		}
	}()
	return formatter.Format(data, toolName, m)
}

func apology(toolName string, err error) string {
	return fmt.Sprintf("The %s tool returned results, but they could not be presented properly (%v). The raw data is available on request.", toolName, err)
}
