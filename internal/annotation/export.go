package annotation

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for all supported corpus image formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// ExportLabelFile writes the given lines as a label file for the image with
// the given stem. Exporting an empty annotation set is an error, an image
// without annotations simply has no label file.
func ExportLabelFile(outputDir, stem string, lines []Line) (string, error) {
	if len(lines) == 0 {
		return "", errors.Newf("no annotations to export for %q", stem).
			Component("annotation").
			Category(errors.CategoryValidation).
			Build()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err).
			Component("annotation").
			Category(errors.CategoryFileIO).
			FileContext(outputDir).
			Build()
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Format())
		sb.WriteByte('\n')
	}

	labelPath := filepath.Join(outputDir, stem+".txt")
	if err := os.WriteFile(labelPath, []byte(sb.String()), 0o644); err != nil {
		return "", errors.Wrap(err).
			Component("annotation").
			Category(errors.CategoryFileIO).
			FileContext(labelPath).
			Build()
	}

	return labelPath, nil
}

// ImageSize returns the pixel dimensions of an image without decoding the
// full pixel data.
func ImageSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(err).
			Component("annotation").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrap(err).
			Component("annotation").
			Category(errors.CategoryImageDecode).
			FileContext(path).
			Build()
	}

	return cfg.Width, cfg.Height, nil
}
