// Package meshstats holds the value types that accumulate across the
// hole-repair pipeline: per-hole and whole-mesh statistics. It has no
// dependencies other than stdlib so the packages that report into or read
// these shapes (fillpool, pipeline, statsfmt) can import it without an
// import cycle.
package meshstats

// HoleOutcome classifies what happened to one detected hole.
type HoleOutcome uint8

const (
	// HoleFilled means the Fill Operator closed the hole successfully.
	HoleFilled HoleOutcome = iota
	// HoleFailed means the Fill Operator ran and reported failure, or
	// panicked and was recovered, or the hole's boundary half-edge could
	// not be re-resolved so the operator was never called.
	HoleFailed
	// HoleSkipped means the hole was never submitted to the Fill Operator
	// because it failed an eligibility check (size, diameter, selection
	// guard).
	HoleSkipped
	// HoleCancelled means a cancel token tripped or the job timed out
	// before this hole's turn.
	HoleCancelled
)

// String renders the outcome the way log lines and statsfmt want it.
func (o HoleOutcome) String() string {
	switch o {
	case HoleFilled:
		return "filled"
	case HoleFailed:
		return "failed"
	case HoleSkipped:
		return "skipped"
	case HoleCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// HoleStatistics records the outcome of attempting to fill (or skip) one
// hole. Mirrors include/types.h's HoleStatistics field-for-field, plus
// Outcome/ErrorMessage which the original surfaced via exceptions instead
// of a value (spec.md §9's re-architecture note).
type HoleStatistics struct {
	NumBoundaryVertices int
	NumFacesAdded       int
	NumVerticesAdded    int
	HoleArea            float64
	HoleDiameter        float64
	FilledSuccessfully  bool
	FairingSucceeded    bool
	FillTimeMs          float64
	Outcome             HoleOutcome
	ErrorMessage        string
}

// MeshStatistics is the aggregate result of one job's hole-repair attempt.
// Mirrors include/types.h's MeshStatistics.
type MeshStatistics struct {
	OriginalVertices int
	OriginalFaces    int
	FinalVertices    int
	FinalFaces       int

	NumHolesDetected int
	NumHolesFilled   int
	NumHolesFailed   int
	NumHolesSkipped  int

	TotalTimeMs float64

	HoleDetails []HoleStatistics
}

// TotalFacesAdded sums NumFacesAdded across every per-hole detail.
func (m *MeshStatistics) TotalFacesAdded() int {
	total := 0
	for _, h := range m.HoleDetails {
		total += h.NumFacesAdded
	}
	return total
}

// TotalVerticesAdded sums NumVerticesAdded across every per-hole detail.
func (m *MeshStatistics) TotalVerticesAdded() int {
	total := 0
	for _, h := range m.HoleDetails {
		total += h.NumVerticesAdded
	}
	return total
}

// DeriveHoleCounts recomputes NumHolesFilled/Failed/Skipped from
// HoleDetails, folding HoleCancelled into NumHolesFailed. This is the
// authoritative path: spec.md §9 calls out that the partitioned pipeline
// must derive counters from the per-hole vector, never from a submesh's
// original hole count.
func (m *MeshStatistics) DeriveHoleCounts() {
	var filled, failed, skipped int
	for _, h := range m.HoleDetails {
		switch h.Outcome {
		case HoleFilled:
			filled++
		case HoleSkipped:
			skipped++
		case HoleFailed, HoleCancelled:
			failed++
		}
	}
	m.NumHolesFilled = filled
	m.NumHolesFailed = failed
	m.NumHolesSkipped = skipped
}

// Merge folds other's hole details and total time into m, used when
// combining per-submesh statistics back into one job-level MeshStatistics.
// NumHolesDetected and the mesh-size fields are left to the caller since
// they are whole-job quantities, not additive per submesh.
func (m *MeshStatistics) Merge(other MeshStatistics) {
	m.HoleDetails = append(m.HoleDetails, other.HoleDetails...)
	m.TotalTimeMs += other.TotalTimeMs
}
