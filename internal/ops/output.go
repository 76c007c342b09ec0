package ops

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/util"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or text)", name)
	}
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, avoiding verbose per-call checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// WriteGroups writes the duplicate groups of result to w. JSON and YAML
// carry only the nested path lists; text adds sizes and wasted space.
func WriteGroups(w io.Writer, result *model.Result, format Format) error {
	bw := bufio.NewWriterSize(w, 64*1024)

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(bw)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result.PathGroups()); err != nil {
			return err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(bw)
		enc.SetIndent(4)
		if err := enc.Encode(result.PathGroups()); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case FormatText:
		if err := writeText(bw, result); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return bw.Flush()
}

func writeText(w io.Writer, result *model.Result) error {
	ew := &errWriter{w: w}
	for i, g := range result.Groups {
		if i > 0 {
			ew.printf("\n")
		}
		ew.printf("%d files, %s each, %s wasted", g.Count(), util.FormatSize(g.Size), util.FormatSize(g.Wasted()))
		if g.Links > 0 {
			ew.printf(" (%d hard links)", g.Links)
		}
		ew.printf("\n")
		for _, p := range g.Paths {
			ew.printf("    %s\n", p)
		}
	}
	if len(result.Groups) > 0 {
		ew.printf("\n")
	}
	ew.printf("%d groups, %d duplicate files, %s reclaimable\n",
		len(result.Groups), result.DuplicateCount(), util.FormatSize(result.TotalWasted()))
	return ew.err
}
