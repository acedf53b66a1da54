package evaluate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yumyai/annoteval/pkg/annotation"
)

// Metrics is the aggregate comparison of a prediction run with ground truth.
type Metrics struct {
	FScore    float64
	Precision float64
	Recall    float64
	S         float64 // semantic distance, sqrt(RU² + MI²)

	MI float64 // mean misinformation per sample
	RU float64 // mean remaining uncertainty per sample

	Total          int // samples with non-empty ground truth
	PredictedTotal int // of those, samples with a non-empty prediction
}

// Score compares predicted[i] with truth[i] for every sample. Both sides
// must already be ancestor closed.
//
// Samples with empty ground truth are skipped entirely. Recall is averaged
// over the remaining samples, precision only over those with a non-empty
// prediction (and is 0 when there are none). MI and RU sum the IC of false
// positive and false negative terms and are averaged over the included
// samples.
func Score(ic ICSource, truth, predicted []annotation.Set) (Metrics, error) {
	if len(truth) != len(predicted) {
		return Metrics{}, ErrInputShape
	}

	var (
		m       Metrics
		p, r    float64
		mi, ru  float64
		weights []float64
	)
	for i := range truth {
		if truth[i].Len() == 0 {
			continue
		}
		tp := truth[i].Intersect(predicted[i])
		fp := predicted[i].Difference(tp)
		fn := truth[i].Difference(tp)

		var err error
		if weights, err = icOf(ic, fp, weights[:0]); err != nil {
			return Metrics{}, &SampleError{Index: i, Err: err}
		}
		mi += floats.Sum(weights)
		if weights, err = icOf(ic, fn, weights[:0]); err != nil {
			return Metrics{}, &SampleError{Index: i, Err: err}
		}
		ru += floats.Sum(weights)

		m.Total++
		r += float64(tp.Len()) / float64(tp.Len()+fn.Len())
		if predicted[i].Len() > 0 {
			m.PredictedTotal++
			p += float64(tp.Len()) / float64(tp.Len()+fp.Len())
		}
	}
	if m.Total == 0 {
		return Metrics{}, ErrDegenerateMetric
	}

	total := float64(m.Total)
	m.RU = ru / total
	m.MI = mi / total
	m.Recall = r / total
	if m.PredictedTotal > 0 {
		m.Precision = p / float64(m.PredictedTotal)
	}
	if m.Precision+m.Recall > 0 {
		m.FScore = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.S = math.Sqrt(m.RU*m.RU + m.MI*m.MI)
	return m, nil
}

// icOf appends the IC of each term to dst in sorted term order, so sums do
// not depend on map iteration order.
func icOf(ic ICSource, terms annotation.Set, dst []float64) ([]float64, error) {
	for _, id := range terms.Sorted() {
		v, err := ic.IC(id)
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}
