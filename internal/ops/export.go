package ops

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/godupes/internal/model"
)

// ToolName identifies reports written by this program.
const ToolName = "godupes"

// Report is the exported form of a Result.
type Report struct {
	ID        string        `json:"id" yaml:"id"`
	Tool      string        `json:"tool" yaml:"tool"`
	Version   string        `json:"version" yaml:"version"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Root      string        `json:"root" yaml:"root"`
	Method    model.Method  `json:"method" yaml:"method"`
	Algorithm string        `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Stats     model.Stats   `json:"stats" yaml:"stats"`
	Groups    []model.Group `json:"groups" yaml:"groups"`
}

// NewReport wraps result in a report envelope with a fresh ID.
func NewReport(result *model.Result, version string) *Report {
	if version == "" {
		version = "dev"
	}
	groups := result.Groups
	if groups == nil {
		groups = []model.Group{}
	}
	return &Report{
		ID:        uuid.NewString(),
		Tool:      ToolName,
		Version:   version,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Root:      result.Root,
		Method:    result.Method,
		Algorithm: result.Algorithm,
		Stats:     result.Stats,
		Groups:    groups,
	}
}

// Result returns the report contents as a Result.
func (r *Report) Result() *model.Result {
	return &model.Result{
		Root:      r.Root,
		Method:    r.Method,
		Algorithm: r.Algorithm,
		Groups:    r.Groups,
		Stats:     r.Stats,
	}
}

// FormatForPath picks YAML for .yaml/.yml paths and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Export writes result as a report to path, or to stdout when path is "-".
// An empty format is derived from the file extension. For file targets,
// writes to a temp file first and atomically renames on success, so a
// partial file is never left behind on error.
func Export(result *model.Result, path string, format Format, version string) (retErr error) {
	if format == "" {
		format = FormatForPath(path)
	}
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("reports can be exported as json or yaml, not %q", format)
	}
	report := NewReport(result, version)

	if path == "-" {
		return writeReport(os.Stdout, report, format)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".godupes-export-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := writeReport(tmp, report, format); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, Rename cannot replace an existing destination.
		if runtime.GOOS != "windows" {
			return err
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("cannot replace export file %s: %w", path, err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(out io.Writer, report *Report, format Format) error {
	bw := bufio.NewWriterSize(out, 64*1024)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(bw)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		enc := json.NewEncoder(bw)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return bw.Flush()
}
