package output

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/scan"
)

// Writer renders a scan report, and any patches synthesized for it, in
// one output format.
type Writer interface {
	Write(w io.Writer, report *scan.Report, patches []patch.Patch) error
}

// GetWriter returns a writer for the named format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Rand: rand.Intn}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport renders the report to outPath, or stdout when outPath is
// empty.
func WriteReport(report *scan.Report, patches []patch.Patch, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}
	return writer.Write(w, report, patches)
}
