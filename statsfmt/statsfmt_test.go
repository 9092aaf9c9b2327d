package statsfmt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssh4net/meshrepair/meshstats"
	"github.com/ssh4net/meshrepair/pipeline"
	"github.com/ssh4net/meshrepair/statsfmt"
)

func TestFormatIncludesCoreCounts(t *testing.T) {
	stats := meshstats.MeshStatistics{
		OriginalVertices: 8,
		OriginalFaces:    10,
		FinalVertices:    8,
		FinalFaces:       12,
		NumHolesDetected: 1,
		NumHolesFilled:   1,
		HoleDetails: []meshstats.HoleStatistics{
			{NumBoundaryVertices: 4, NumFacesAdded: 2, Outcome: meshstats.HoleFilled},
		},
	}

	out := statsfmt.Format(stats)
	assert.Contains(t, out, "vertices: 8 -> 8")
	assert.Contains(t, out, "faces:    10 -> 12")
	assert.Contains(t, out, "detected=1 filled=1")
	assert.Contains(t, out, "outcome=filled")
}

func TestFormatResultIncludesStatusAndError(t *testing.T) {
	result := pipeline.Result{
		Status:       pipeline.LoadFailed,
		ErrorMessage: `Load failed (in.obj): meshio: open "in.obj": no such file`,
	}

	out := statsfmt.FormatResult(result)
	assert.True(t, strings.HasPrefix(out, "status: LoadFailed\n"))
	assert.Contains(t, out, "error:  Load failed")
}
