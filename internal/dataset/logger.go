// Package dataset implements corpus discovery, splitting and on-disk
// dataset materialization.
package dataset

import (
	"log/slog"
	"sync"

	"github.com/carsight/vehiclenet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	initOnce      sync.Once
)

// getLogger returns the dataset package logger.
func getLogger() *slog.Logger {
	initOnce.Do(func() {
		serviceLogger = logging.ForService("dataset")
	})
	return serviceLogger
}
