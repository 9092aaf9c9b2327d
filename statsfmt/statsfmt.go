// Package statsfmt is the single MeshStatistics/pipeline.Result → text
// formatter, grounded on spec.md §9's note that IPC/GUI layers must not
// each embed a partial copy of stats formatting. cmd/meshrepairctl's
// single-job and batch paths both call into this package rather than
// building their own summary strings.
package statsfmt

import (
	"fmt"
	"strings"

	"github.com/ssh4net/meshrepair/meshstats"
	"github.com/ssh4net/meshrepair/pipeline"
)

// Format renders one job's mesh statistics as a multi-line human-readable
// summary.
func Format(s meshstats.MeshStatistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "vertices: %d -> %d\n", s.OriginalVertices, s.FinalVertices)
	fmt.Fprintf(&b, "faces:    %d -> %d\n", s.OriginalFaces, s.FinalFaces)
	fmt.Fprintf(&b, "holes:    detected=%d filled=%d failed=%d skipped=%d\n",
		s.NumHolesDetected, s.NumHolesFilled, s.NumHolesFailed, s.NumHolesSkipped)
	fmt.Fprintf(&b, "added:    %d vertices, %d faces\n", s.TotalVerticesAdded(), s.TotalFacesAdded())
	fmt.Fprintf(&b, "time:     %.2f ms\n", s.TotalTimeMs)

	if len(s.HoleDetails) == 0 {
		return b.String()
	}
	b.WriteString("holes:\n")
	for i, h := range s.HoleDetails {
		fmt.Fprintf(&b, "  #%d boundary=%d outcome=%s faces_added=%d time=%.2fms",
			i, h.NumBoundaryVertices, h.Outcome, h.NumFacesAdded, h.FillTimeMs)
		if h.ErrorMessage != "" {
			fmt.Fprintf(&b, " error=%q", h.ErrorMessage)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatResult renders a full job result: its terminal status and error
// message (if any), followed by Format's statistics summary.
func FormatResult(r pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", r.Status)
	if r.ErrorMessage != "" {
		fmt.Fprintf(&b, "error:  %s\n", r.ErrorMessage)
	}
	b.WriteString(Format(r.Stats))
	return b.String()
}
