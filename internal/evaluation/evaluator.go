// Package evaluation runs a trained artifact against the validation split
// and derives summary metrics from the engine's raw box metrics.
package evaluation

import (
	"context"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// BoxMetrics is the raw metrics object exposed by the detection engine's
// val operation. The per-class AP arrays are optional; when present,
// APClassIndex, AP50 and AP are parallel slices.
type BoxMetrics struct {
	MAP50         float64
	MAP           float64
	MeanPrecision float64
	MeanRecall    float64
	APClassIndex  []int
	AP50          []float64
	AP            []float64
}

// Validator is the slice of the engine consumed here: evaluate a weights
// artifact against one split of a dataset descriptor.
type Validator interface {
	Validate(ctx context.Context, weights, data, split string) (*BoxMetrics, error)
}

// ClassAP holds per-class average precision.
type ClassAP struct {
	AP50 float64 `json:"ap50"`
	AP   float64 `json:"ap"`
}

// Metrics is the read-only evaluation summary, computed once per call.
type Metrics struct {
	MAP50     float64         `json:"mAP50"`
	MAP5095   float64         `json:"mAP50-95"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1_score"`
	PerClass  map[int]ClassAP `json:"class_metrics,omitempty"`
}

// f1Epsilon guards the harmonic mean against division by zero when both
// precision and recall are zero.
const f1Epsilon = 1e-16

// F1Score computes the harmonic mean of precision and recall.
func F1Score(precision, recall float64) float64 {
	return 2 * precision * recall / (precision + recall + f1Epsilon)
}

// Evaluator runs a trained artifact against the validation split.
type Evaluator struct {
	Engine Validator
}

// Evaluate runs the engine's val operation on the validation split of the
// given dataset descriptor and extracts the summary metrics.
func (e *Evaluator) Evaluate(ctx context.Context, weights, descriptorPath string) (*Metrics, error) {
	box, err := e.Engine.Validate(ctx, weights, descriptorPath, "val")
	if err != nil {
		return nil, errors.Wrap(err).
			Component("evaluation").
			Category(errors.CategoryEvaluation).
			Context("weights", weights).
			Build()
	}

	m := &Metrics{
		MAP50:     box.MAP50,
		MAP5095:   box.MAP,
		Precision: box.MeanPrecision,
		Recall:    box.MeanRecall,
		F1:        F1Score(box.MeanPrecision, box.MeanRecall),
	}

	if len(box.APClassIndex) > 0 && len(box.APClassIndex) == len(box.AP50) && len(box.APClassIndex) == len(box.AP) {
		m.PerClass = make(map[int]ClassAP, len(box.APClassIndex))
		for i, classID := range box.APClassIndex {
			m.PerClass[classID] = ClassAP{AP50: box.AP50[i], AP: box.AP[i]}
		}
	}

	return m, nil
}
