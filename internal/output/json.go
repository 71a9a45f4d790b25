package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/scan"
)

// JSONWriter emits the report and patches as one JSON document.
type JSONWriter struct{}

type jsonReport struct {
	*scan.Report
	Patches []patch.Patch `json:"patches,omitempty"`
}

func (j *JSONWriter) Write(w io.Writer, report *scan.Report, patches []patch.Patch) error {
	data, err := json.MarshalIndent(jsonReport{Report: report, Patches: patches}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
