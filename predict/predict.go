// Package predict is the boundary to an external inference engine that turns
// a single image into a Gaussian cloud.
//
// No model ships with this module. Hosts implement Predictor on top of their
// engine; the rest of the module only depends on this contract.
package predict

import (
	"context"
	"errors"
	"image"

	"github.com/gogpu/gsplat"
)

// Inference errors. Engines wrap one of these so StatusOf can classify them.
var (
	ErrModelNotLoaded     = errors.New("predict: model not loaded")
	ErrInvalidInput       = errors.New("predict: invalid input image")
	ErrInferenceFailed    = errors.New("predict: inference failed")
	ErrEngineUnavailable  = errors.New("predict: inference engine unavailable")
	ErrInvalidModelFormat = errors.New("predict: invalid model format")
)

// Status classifies the outcome of a prediction.
type Status int

// Prediction outcomes.
const (
	Success Status = iota
	ModelNotLoaded
	InvalidInput
	InferenceFailed
	EngineUnavailable
	InvalidModelFormat
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case ModelNotLoaded:
		return "ModelNotLoaded"
	case InvalidInput:
		return "InvalidInput"
	case InferenceFailed:
		return "InferenceFailed"
	case EngineUnavailable:
		return "EngineUnavailable"
	case InvalidModelFormat:
		return "InvalidModelFormat"
	default:
		return "Unknown"
	}
}

// StatusOf maps err to a Status. Unrecognized errors, including context
// cancellation, are InferenceFailed.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrModelNotLoaded):
		return ModelNotLoaded
	case errors.Is(err, ErrInvalidInput):
		return InvalidInput
	case errors.Is(err, ErrEngineUnavailable):
		return EngineUnavailable
	case errors.Is(err, ErrInvalidModelFormat):
		return InvalidModelFormat
	default:
		return InferenceFailed
	}
}

// Predictor infers a cloud from one image.
//
// Implementations should check ctx between stages; cancellation is best
// effort and may only take effect once the current stage finishes.
type Predictor interface {
	Predict(ctx context.Context, img image.Image) (*gsplat.Cloud, error)
}

// Func adapts a function to Predictor.
type Func func(ctx context.Context, img image.Image) (*gsplat.Cloud, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, img image.Image) (*gsplat.Cloud, error) {
	return f(ctx, img)
}

// Callback receives the result of PredictAsync. cloud is nil unless status
// is Success.
type Callback func(cloud *gsplat.Cloud, status Status, err error)

// Predict validates img and runs p. A nil or empty image fails with
// ErrInvalidInput before p is called, and a nil Predictor with
// ErrEngineUnavailable.
func Predict(ctx context.Context, p Predictor, img image.Image) (*gsplat.Cloud, error) {
	if p == nil {
		return nil, ErrEngineUnavailable
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cloud, err := p.Predict(ctx, img)
	if err != nil {
		return nil, err
	}
	if cloud == nil {
		return nil, ErrInferenceFailed
	}
	return cloud, nil
}

// PredictAsync runs Predict on a new goroutine and delivers the result to
// cb on that goroutine. The returned channel is closed after cb returns.
func PredictAsync(ctx context.Context, p Predictor, img image.Image, cb Callback) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		cloud, err := Predict(ctx, p, img)
		status := StatusOf(err)
		if err != nil {
			gsplat.Logger().Warn("predict: failed", "status", status, "err", err)
		}
		if cb != nil {
			cb(cloud, status, err)
		}
	}()
	return done
}
