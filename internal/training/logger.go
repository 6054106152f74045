// Package training orchestrates long-running model training against the
// external detection engine.
package training

import (
	"log/slog"
	"sync"

	"github.com/carsight/vehiclenet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	initOnce      sync.Once
)

// getLogger returns the training package logger.
func getLogger() *slog.Logger {
	initOnce.Do(func() {
		serviceLogger = logging.ForService("training")
	})
	return serviceLogger
}
