package training

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/carsight/vehiclenet-go/internal/errors"
	"github.com/carsight/vehiclenet-go/internal/evaluation"
)

// assetsBaseURL is where pretrained detection weights are published.
const assetsBaseURL = "https://github.com/ultralytics/assets/releases/latest/download"

// UltralyticsEngine drives the ultralytics `yolo` command-line tool as an
// external process. Training progress is recovered by parsing the tool's
// console output; cancellation kills the process through the context.
type UltralyticsEngine struct {
	// Binary is the yolo executable name or path. Empty means "yolo".
	Binary string
	// HTTPClient is used for base-model downloads. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (e *UltralyticsEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "yolo"
}

func (e *UltralyticsEngine) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}

// Resolve acquires the named pretrained model, downloading it into destDir
// when it is not already cached there.
func (e *UltralyticsEngine) Resolve(ctx context.Context, identifier, destDir string) (string, error) {
	if !strings.HasSuffix(identifier, ".pt") {
		return "", errors.Newf("unrecognized base model identifier %q", identifier).
			Component("training").
			Category(errors.CategoryModelResolution).
			Build()
	}

	cached := filepath.Join(destDir, filepath.Base(identifier))
	if info, err := os.Stat(cached); err == nil && info.Size() > 0 {
		return cached, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(destDir).
			Build()
	}

	url := assetsBaseURL + "/" + filepath.Base(identifier)
	getLogger().Info("downloading base model", "model", identifier, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryModelResolution).
			Build()
	}

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryModelResolution).
			Context("url", url).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("base model download failed: %s returned %s", url, resp.Status).
			Component("training").
			Category(errors.CategoryModelResolution).
			Build()
	}

	// Download into a temp file first so a torn transfer never poisons
	// the cache.
	tmp, err := os.CreateTemp(destDir, filepath.Base(identifier)+".download-*")
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(destDir).
			Build()
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryModelResolution).
			Context("url", url).
			Build()
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(tmp.Name()).
			Build()
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(cached).
			Build()
	}

	return cached, nil
}

// epochLinePattern matches the start of ultralytics' per-epoch progress
// rows, e.g. "      3/100      1.2G      1.234      0.567 ...".
var epochLinePattern = regexp.MustCompile(`^\s*(\d+)/(\d+)\s+\S+\s+([\d.]+)`)

// Train launches `yolo detect train` with the given parameter set and
// parses epoch completions from its stdout.
func (e *UltralyticsEngine) Train(ctx context.Context, args TrainArgs, onEpoch EpochFunc) error {
	model, _ := args["model"].(string)
	if model == "" {
		return errors.Newf("train args missing resolved model").
			Component("training").
			Category(errors.CategoryValidation).
			Build()
	}

	cmd := exec.CommandContext(ctx, e.binary(), append([]string{"detect", "train"}, formatArgs(args)...)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err).Component("training").Category(errors.CategoryEngine).Build()
	}
	cmd.Stderr = cmd.Stdout // progress rows go to both streams depending on version
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err).
			Component("training").
			Category(errors.CategoryEngine).
			Context("binary", e.binary()).
			Build()
	}

	total, _ := args["epochs"].(int)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lastEpoch := 0
	for scanner.Scan() {
		line := scanner.Text()
		m := epochLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		epoch, _ := strconv.Atoi(m[1])
		reported, _ := strconv.Atoi(m[2])
		if reported > 0 {
			total = reported
		}
		// The tool prints many rows per epoch; report each epoch once,
		// when its first row for the next epoch appears.
		if epoch <= lastEpoch {
			continue
		}
		lastEpoch = epoch
		metrics := map[string]any{}
		if loss, err := strconv.ParseFloat(m[3], 64); err == nil {
			metrics["loss"] = loss
		}
		if onEpoch != nil {
			onEpoch(epoch-1, total, metrics)
		}
	}
	if err := scanner.Err(); err != nil {
		// Training keeps running, only epoch parsing degrades.
		getLogger().Warn("stopped parsing engine output", "error", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err()).
				Component("training").
				Category(errors.CategoryCancellation).
				Build()
		}
		return errors.Wrap(err).
			Component("training").
			Category(errors.CategoryEngine).
			Context("binary", e.binary()).
			Build()
	}
	return nil
}

// valLinePattern matches the summary row of `yolo detect val`, e.g.
// "   all    128    929    0.64    0.537    0.605    0.446".
var valLinePattern = regexp.MustCompile(`^\s*all\s+\d+\s+\d+\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)`)

// Validate runs `yolo detect val` and parses the aggregate metrics row.
func (e *UltralyticsEngine) Validate(ctx context.Context, weights, data, split string) (*evaluation.BoxMetrics, error) {
	cmd := exec.CommandContext(ctx, e.binary(), "detect", "val",
		"model="+weights, "data="+data, "split="+split)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err()).
				Component("training").
				Category(errors.CategoryCancellation).
				Build()
		}
		return nil, errors.Newf("validation failed: %w: %s", err, lastLines(string(out), 5)).
			Component("training").
			Category(errors.CategoryEngine).
			Build()
	}

	for _, line := range strings.Split(string(out), "\n") {
		m := valLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		p, _ := strconv.ParseFloat(m[1], 64)
		r, _ := strconv.ParseFloat(m[2], 64)
		map50, _ := strconv.ParseFloat(m[3], 64)
		map5095, _ := strconv.ParseFloat(m[4], 64)
		return &evaluation.BoxMetrics{
			MAP50:         map50,
			MAP:           map5095,
			MeanPrecision: p,
			MeanRecall:    r,
		}, nil
	}

	return nil, errors.Newf("validation output contained no summary metrics row").
		Component("training").
		Category(errors.CategoryEngine).
		Build()
}

// formatArgs renders the parameter set as sorted key=value tokens. Sorted
// order keeps process invocations reproducible for the same inputs.
func formatArgs(args TrainArgs) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// lastLines returns the tail of the output, where the tool prints its
// actual failure reason.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
