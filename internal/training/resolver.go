package training

import (
	"context"
	"os"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// fallbackModels are tried, in order, when the configured base model cannot
// be acquired. Smallest first so a degraded environment still trains.
var fallbackModels = []string{"yolov8n.pt", "yolov8s.pt", "yolov8m.pt"}

// ResolveBaseModel turns a base-model identifier into a local weights file.
// A path to an existing file wins outright; otherwise the engine is asked
// to acquire the named model into destDir, and on failure each fallback
// model is tried in turn. Exhausting the fallbacks is fatal: training never
// starts without resolved base weights.
func ResolveBaseModel(ctx context.Context, engine Engine, identifier, destDir string) (string, error) {
	log := getLogger()

	if info, err := os.Stat(identifier); err == nil && !info.IsDir() {
		log.Info("using local base model", "path", identifier)
		return identifier, nil
	}

	candidates := make([]string, 0, len(fallbackModels)+1)
	candidates = append(candidates, identifier)
	for _, fb := range fallbackModels {
		if fb != identifier {
			candidates = append(candidates, fb)
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		path, err := engine.Resolve(ctx, candidate, destDir)
		if err == nil {
			if candidate != identifier {
				log.Warn("base model unavailable, using fallback",
					"requested", identifier, "fallback", candidate)
			}
			return path, nil
		}
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err()).
				Component("training").
				Category(errors.CategoryCancellation).
				Build()
		}
		log.Warn("base model candidate failed to resolve", "candidate", candidate, "error", err)
		lastErr = err
	}

	return "", errors.Newf("unable to resolve base model %q or any fallback: %w", identifier, lastErr).
		Component("training").
		Category(errors.CategoryModelResolution).
		Context("requested", identifier).
		Build()
}
