package dataset

import (
	"io"
	"os"
	"path/filepath"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// ProgressFunc receives the copy progress as an integer percentage.
type ProgressFunc func(percent int)

// LayoutWriter materializes the standard on-disk dataset layout:
// images/{train,val,test} and labels/{train,val,test} under the dataset
// root, with matched image/label pairs copied into the split directories.
type LayoutWriter struct {
	Root string // dataset root, named for the configured dataset
}

// CreateStructure creates the split directory tree. Existing directories
// are left in place so a re-run overwrites rather than fails.
func (w *LayoutWriter) CreateStructure() error {
	for _, split := range SplitNames {
		for _, kind := range []string{"images", "labels"} {
			dir := filepath.Join(w.Root, kind, string(split))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(err).
					Component("dataset").
					Category(errors.CategoryFileIO).
					FileContext(dir).
					Build()
			}
		}
	}
	return nil
}

// WriteSplits copies every file of every split into the layout. Images
// keep their filename; labels are renamed to the image stem. An image
// without a label is copied alone, it is a valid background example.
// Copies overwrite, so re-running preparation is idempotent.
func (w *LayoutWriter) WriteSplits(splits *SplitSet, corpus *Corpus, progress ProgressFunc) error {
	total := splits.Total()
	processed := 0

	for _, split := range SplitNames {
		for _, imgPath := range splits.Files(split) {
			imgDst := filepath.Join(w.Root, "images", string(split), filepath.Base(imgPath))
			if err := copyFile(imgPath, imgDst); err != nil {
				return err
			}

			if labelPath, ok := corpus.LabelFor(imgPath); ok {
				labelDst := filepath.Join(w.Root, "labels", string(split), stem(imgPath)+".txt")
				if err := copyFile(labelPath, labelDst); err != nil {
					return err
				}
			}

			processed++
			if progress != nil && total > 0 {
				progress(processed * 100 / total)
			}
		}
	}

	return nil
}

// copyFile copies src to dst, truncating any existing destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(src).
			Build()
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(dst).
			Build()
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(dst).
			Build()
	}

	return out.Close()
}
