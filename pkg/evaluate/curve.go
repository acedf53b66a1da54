package evaluate

import (
	"slices"

	"gonum.org/v1/gonum/integrate"
)

// CurvePoint is one (recall, precision) sample of the precision/recall
// curve, tagged with the threshold that produced it.
type CurvePoint struct {
	Threshold float64
	Precision float64
	Recall    float64
}

// SortCurve orders points by ascending recall. Points with equal recall keep
// their relative order.
func SortCurve(points []CurvePoint) {
	slices.SortStableFunc(points, func(a, b CurvePoint) int {
		switch {
		case a.Recall < b.Recall:
			return -1
		case a.Recall > b.Recall:
			return 1
		}
		return 0
	})
}

// AUPR integrates precision over recall with the trapezoidal rule. The
// input is not modified. Fewer than two points have no area.
func AUPR(points []CurvePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	sorted := slices.Clone(points)
	SortCurve(sorted)

	recalls := make([]float64, len(sorted))
	precisions := make([]float64, len(sorted))
	for i, p := range sorted {
		recalls[i] = p.Recall
		precisions[i] = p.Precision
	}
	return integrate.Trapezoidal(recalls, precisions)
}
