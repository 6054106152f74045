package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// imageExtensions are the supported corpus image formats, matched
// case-insensitively.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// labelExtension is the per-image annotation file extension.
const labelExtension = ".txt"

// Corpus is the deduplicated result of scanning the search roots.
// Ordering of Images and Labels is not a contract.
type Corpus struct {
	Images []string
	Labels []string

	labelsByStem map[string]string
}

// LabelFor returns the annotation file matching the image's stem, or false
// when the image has no label (an unlabeled background example).
func (c *Corpus) LabelFor(imagePath string) (string, bool) {
	label, ok := c.labelsByStem[stem(imagePath)]
	return label, ok
}

// Collector discovers image and annotation files across multiple search
// roots. Roots that do not exist are skipped; scanning is non-recursive.
type Collector struct {
	SourceDirs []string
}

// Collect scans each root and returns the deduplicated corpus. The same
// physical file reachable via two roots counts once; dedup is by resolved
// absolute path.
func (c *Collector) Collect() (*Corpus, error) {
	seen := make(map[string]bool)
	corpus := &Corpus{labelsByStem: make(map[string]string)}
	log := getLogger()

	for _, root := range c.SourceDirs {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(err).
				Component("dataset").
				Category(errors.CategoryFileIO).
				FileContext(root).
				Build()
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			path := filepath.Join(root, entry.Name())
			resolved := resolvePath(path)
			if seen[resolved] {
				continue
			}

			ext := strings.ToLower(filepath.Ext(entry.Name()))
			switch {
			case imageExtensions[ext]:
				seen[resolved] = true
				corpus.Images = append(corpus.Images, resolved)
			case ext == labelExtension:
				seen[resolved] = true
				corpus.Labels = append(corpus.Labels, resolved)
				s := stem(resolved)
				if prev, dup := corpus.labelsByStem[s]; dup {
					// Two label files with the same stem signal a corrupt
					// source tree; keep the first encountered.
					log.Warn("duplicate label stem, keeping first match",
						"stem", s, "kept", prev, "ignored", resolved)
					continue
				}
				corpus.labelsByStem[s] = resolved
			}
		}
	}

	return corpus, nil
}

// resolvePath returns the absolute path with symlinks resolved, so that a
// file reachable through a link and through its target dedups to one entry.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// stem returns the filename without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
