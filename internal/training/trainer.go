package training

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/datastore"
	"github.com/carsight/vehiclenet-go/internal/errors"
	"github.com/carsight/vehiclenet-go/internal/logging"
)

// Status is the lifecycle state of a training run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPreparing Status = "preparing"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// terminal reports whether the status is an end state.
func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Event is a notification emitted by a running training job. The concrete
// types are ProgressEvent, LogEvent, CompletedEvent and FailedEvent.
type Event interface {
	event()
}

// ProgressEvent reports overall completion. Percent values are strictly
// increasing over the lifetime of a run and end at 100 on completion.
type ProgressEvent struct {
	Percent int
}

// LogEvent carries one human-readable progress line.
type LogEvent struct {
	Message string
}

// CompletedEvent is the final event of a successful run.
type CompletedEvent struct {
	ArtifactPath string
}

// FailedEvent is the final event of a failed run. Cancelled runs emit no
// terminal event; the closed channel and the run status signal the outcome.
type FailedEvent struct {
	Err error
}

func (ProgressEvent) event()  {}
func (LogEvent) event()       {}
func (CompletedEvent) event() {}
func (FailedEvent) event()    {}

// eventBufferSize bounds the event queue. Consumers must drain Events();
// the buffer only absorbs short consumer stalls.
const eventBufferSize = 256

// Run is a handle to one training run.
type Run struct {
	ID     string
	Name   string // run directory name, <model>_<timestamp>_<id>
	Dir    string
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	status Status
}

// Status returns the run's current lifecycle state.
func (r *Run) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Run) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Events returns the run's event stream. The channel is closed when the
// run reaches a terminal state.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Wait blocks until the run reaches a terminal state.
func (r *Run) Wait() {
	<-r.done
}

// Cancel forcibly stops the run. The underlying engine process is killed,
// partial progress in the run directory is left on disk. Cancelling a run
// that already finished is a no-op.
func (r *Run) Cancel() {
	if r.Status() == StatusRunning {
		r.cancel()
	}
}

// Orchestrator owns training runs. At most one run is active at a time;
// starting a second while one is in flight is a state error.
type Orchestrator struct {
	engine Engine
	store  datastore.Interface // nil disables run-history persistence

	mu     sync.Mutex
	active *Run
}

// NewOrchestrator creates an orchestrator backed by the given engine.
// store may be nil when run history is disabled.
func NewOrchestrator(engine Engine, store datastore.Interface) *Orchestrator {
	return &Orchestrator{engine: engine, store: store}
}

// Status returns the lifecycle state of the current or most recent run,
// or StatusIdle when nothing has been started.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return StatusIdle
	}
	return o.active.Status()
}

// Active returns the current or most recent run, or nil.
func (o *Orchestrator) Active() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Start begins a training run and returns a handle to it. Preparation
// (device detection, base-model resolution, run directory setup) happens
// synchronously; the training itself runs in the background and reports
// through the run's event stream. A resolution failure aborts before any
// run state is created.
func (o *Orchestrator) Start(ctx context.Context, cfg conf.TrainingSettings, descriptorPath string) (*Run, error) {
	o.mu.Lock()
	if o.active != nil && !o.active.Status().terminal() {
		o.mu.Unlock()
		return nil, errors.Newf("a training run is already in progress").
			Component("training").
			Category(errors.CategoryState).
			Build()
	}
	run := &Run{
		ID:     shortRunID(),
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
		status: StatusPreparing,
	}
	o.active = run
	o.mu.Unlock()

	abort := func(err error) (*Run, error) {
		o.mu.Lock()
		o.active = nil
		o.mu.Unlock()
		close(run.events)
		close(run.done)
		return nil, err
	}

	if _, err := os.Stat(descriptorPath); err != nil {
		return abort(errors.Newf("dataset descriptor not found: %s", descriptorPath).
			Component("training").
			Category(errors.CategoryResourceMissing).
			FileContext(descriptorPath).
			Build())
	}

	device := DetectDevice(cfg.Device)

	resolved, err := ResolveBaseModel(ctx, o.engine, cfg.BaseModel, cfg.WeightsDir)
	if err != nil {
		return abort(err)
	}

	run.Name = fmt.Sprintf("%s_%s_%s", cfg.ModelName, time.Now().Format("20060102_150405"), run.ID)
	run.Dir = filepath.Join(cfg.OutputDir, run.Name)
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return abort(errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(run.Dir).
			Build())
	}

	startedAt := time.Now()
	snapshot := &ConfigSnapshot{
		CreatedAt:      startedAt,
		RunID:          run.ID,
		ModelName:      cfg.ModelName,
		BaseModel:      cfg.BaseModel,
		ResolvedModel:  resolved,
		Device:         device,
		DescriptorPath: descriptorPath,
		Epochs:         cfg.Epochs,
		BatchSize:      cfg.BatchSize,
		ImageSize:      cfg.ImageSize,
		LearningRate:   cfg.LearningRate,
		Optimizer:      cfg.Optimizer,
		WeightDecay:    cfg.WeightDecay,
		Momentum:       cfg.Momentum,
		Workers:        cfg.Workers,
		Patience:       cfg.Patience,
		SavePeriod:     cfg.SavePeriod,
		Augmentation:   cfg.Augmentation,
	}
	if _, err := WriteConfigSnapshot(run.Dir, snapshot); err != nil {
		return abort(err)
	}

	runLogger, closeLogger, err := logging.NewFileLogger(
		filepath.Join(run.Dir, "training.log"), "training", slog.LevelInfo,
		logging.FileLoggerOptions{})
	if err != nil {
		runLogger = getLogger()
		closeLogger = func() error { return nil }
	}

	if o.store != nil {
		record := &datastore.RunRecord{
			RunID:     run.ID,
			ModelName: cfg.ModelName,
			BaseModel: cfg.BaseModel,
			Device:    device,
			Status:    string(StatusRunning),
			RunDir:    run.Dir,
			StartedAt: startedAt,
		}
		if err := o.store.SaveRun(record); err != nil {
			getLogger().Warn("failed to record run start", "run_id", run.ID, "error", err)
		}
	}

	args := BuildTrainArgs(descriptorPath, &cfg, device, cfg.OutputDir, run.Name)
	args["model"] = resolved

	runCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel
	run.setStatus(StatusRunning)

	go o.execute(runCtx, run, &cfg, args, runLogger, closeLogger, startedAt)

	return run, nil
}

// execute is the run worker. It drives the engine, relays events, selects
// the artifact and finalizes the run state.
func (o *Orchestrator) execute(ctx context.Context, run *Run, cfg *conf.TrainingSettings,
	args TrainArgs, log *slog.Logger, closeLogger func() error, startedAt time.Time) {
	defer func() {
		_ = closeLogger()
		close(run.events)
		close(run.done)
	}()

	finish := func(status Status) {
		run.setStatus(status)
		if o.store != nil {
			if err := o.store.UpdateRunStatus(run.ID, string(status)); err != nil {
				getLogger().Warn("failed to record run status", "run_id", run.ID, "error", err)
			}
		}
	}
	fail := func(err error) {
		log.Error("training run failed", "run_id", run.ID, "error", err)
		run.events <- FailedEvent{Err: err}
		finish(StatusFailed)
	}

	log.Info("training started",
		"run_id", run.ID,
		"model", cfg.ModelName,
		"epochs", cfg.Epochs,
		"device", args["device"])

	lastPercent := 0
	epochsSeen := 0
	onEpoch := func(epoch, total int, metrics map[string]any) {
		epochsSeen = epoch + 1
		message := fmt.Sprintf("Epoch %d/%d", epoch+1, total)
		if loss, ok := metrics["loss"]; ok {
			message += " - Loss: " + formatLoss(loss)
		}
		log.Info(message, "epoch", epoch+1, "total", total)
		run.events <- LogEvent{Message: message}

		percent := int(math.Round(float64(epoch+1) / float64(total) * 100))
		if percent > lastPercent {
			lastPercent = percent
			run.events <- ProgressEvent{Percent: percent}
		}
	}

	if err := o.engine.Train(ctx, args, onEpoch); err != nil {
		if ctx.Err() != nil {
			log.Warn("training cancelled", "run_id", run.ID, "epochs_completed", epochsSeen)
			finish(StatusCancelled)
			return
		}
		fail(errors.Wrap(err).
			Component("training").
			Category(errors.CategoryEngine).
			Context("run_id", run.ID).
			Build())
		return
	}

	artifact, err := selectArtifact(run.Dir)
	if err != nil {
		fail(err)
		return
	}

	finalPath, err := publishArtifact(artifact, cfg.ArtifactDir, cfg.ModelName)
	if err != nil {
		fail(err)
		return
	}

	completedAt := time.Now()
	report := &Report{
		RunID:           run.ID,
		ModelName:       cfg.ModelName,
		BaseModel:       cfg.BaseModel,
		Device:          fmt.Sprintf("%v", args["device"]),
		RunDir:          run.Dir,
		ArtifactPath:    finalPath,
		EpochsRequested: cfg.Epochs,
		EpochsCompleted: epochsSeen,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		DurationSeconds: completedAt.Sub(startedAt).Seconds(),
	}
	if _, err := WriteReport(run.Dir, report); err != nil {
		log.Warn("failed to write run report", "run_id", run.ID, "error", err)
	}

	if o.store != nil {
		if err := o.store.SetRunArtifact(run.ID, finalPath); err != nil {
			getLogger().Warn("failed to record run artifact", "run_id", run.ID, "error", err)
		}
	}

	log.Info("training completed",
		"run_id", run.ID,
		"artifact", finalPath,
		"duration", completedAt.Sub(startedAt).Round(time.Second).String())

	run.events <- CompletedEvent{ArtifactPath: finalPath}
	finish(StatusCompleted)
}

// formatLoss renders an epoch loss value for the progress log. Numeric
// losses get fixed precision; anything else passes through verbatim so an
// engine reporting "N/A" stays visible.
func formatLoss(v any) string {
	switch loss := v.(type) {
	case float64:
		return fmt.Sprintf("%.4f", loss)
	case float32:
		return fmt.Sprintf("%.4f", loss)
	case int:
		return fmt.Sprintf("%.4f", float64(loss))
	default:
		return fmt.Sprintf("%v", loss)
	}
}

// selectArtifact picks the weights file out of a finished run directory.
// The best checkpoint wins; the last checkpoint is the fallback when early
// stopping never improved on the initial weights.
func selectArtifact(runDir string) (string, error) {
	weightsDir := filepath.Join(runDir, "weights")
	for _, name := range []string{"best.pt", "last.pt"} {
		candidate := filepath.Join(weightsDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.Newf("no weights artifact found under %s", weightsDir).
		Component("training").
		Category(errors.CategoryResourceMissing).
		FileContext(weightsDir).
		Build()
}

// publishArtifact copies the selected checkpoint into the artifact
// directory under the model's final name.
func publishArtifact(artifact, artifactDir, modelName string) (string, error) {
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(artifactDir).
			Build()
	}

	name := modelName
	if !strings.HasSuffix(name, ".pt") {
		name += ".pt"
	}
	dest := filepath.Join(artifactDir, name)

	src, err := os.Open(artifact)
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(artifact).
			Build()
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(dest).
			Build()
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(dest).
			Build()
	}
	return dest, nil
}

// shortRunID returns the compact run identifier used in directory names.
func shortRunID() string {
	return uuid.New().String()[:8]
}
