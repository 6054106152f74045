package dataset

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// DescriptorFileName is the dataset configuration document consumed by the
// training engine.
const DescriptorFileName = "dataset.yaml"

// Descriptor is the dataset configuration document: absolute dataset root,
// relative split image directories and the ordered class list.
type Descriptor struct {
	Path    string         `yaml:"path"`
	Train   string         `yaml:"train"`
	Val     string         `yaml:"val"`
	Test    string         `yaml:"test"`
	Classes int            `yaml:"nc"`
	Names   map[int]string `yaml:"names"`
}

// ClassSource lists the enabled vehicle classes, ordered by id. The class
// registry collaborator satisfies this.
type ClassSource interface {
	Names(enabledOnly bool) ([]string, error)
}

// DescriptorWriter emits dataset.yaml. The class list is resolved through
// an ordered fallback chain so dataset preparation never fails purely
// because the class registry is unavailable: registry first, then the
// first existing flat classes.txt among the well-known locations, then the
// built-in default list.
type DescriptorWriter struct {
	Registry   ClassSource // may be nil
	ClassFiles []string    // well-known classes.txt locations, in order
}

// defaultClassNames is the last-resort class list.
var defaultClassNames = []string{"motorcycle", "car", "truck", "bus"}

// DefaultClassFiles returns the well-known flat class-list locations
// searched when the registry is unavailable.
func DefaultClassFiles(sourceDirs []string) []string {
	files := []string{
		"classes.txt",
		filepath.Join("exports", "yolo", "classes.txt"),
	}
	for _, dir := range sourceDirs {
		files = append(files, filepath.Join(dir, "classes.txt"))
	}
	return files
}

// ClassNames resolves the class list through the fallback chain.
func (dw *DescriptorWriter) ClassNames() []string {
	log := getLogger()

	if dw.Registry != nil {
		names, err := dw.Registry.Names(true)
		if err == nil && len(names) > 0 {
			return names
		}
		if err != nil {
			log.Warn("class registry unavailable, falling back to class files", "error", err)
		}
	}

	for _, path := range dw.ClassFiles {
		names, err := readClassFile(path)
		if err != nil {
			continue
		}
		if len(names) > 0 {
			return names
		}
	}

	log.Warn("no class source available, using default class list")
	return defaultClassNames
}

// Write resolves the class list and emits the descriptor into the dataset
// root. It returns the written descriptor together with its path.
func (dw *DescriptorWriter) Write(datasetRoot string) (*Descriptor, string, error) {
	absRoot, err := filepath.Abs(datasetRoot)
	if err != nil {
		return nil, "", errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(datasetRoot).
			Build()
	}

	classes := dw.ClassNames()
	names := make(map[int]string, len(classes))
	for i, name := range classes {
		names[i] = name
	}

	desc := &Descriptor{
		Path:    absRoot,
		Train:   "images/train",
		Val:     "images/val",
		Test:    "images/test",
		Classes: len(classes),
		Names:   names,
	}

	data, err := yaml.Marshal(desc)
	if err != nil {
		return nil, "", errors.Wrap(err).Component("dataset").Build()
	}

	descPath := filepath.Join(datasetRoot, DescriptorFileName)
	if err := os.WriteFile(descPath, data, 0o644); err != nil {
		return nil, "", errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(descPath).
			Build()
	}

	return desc, descPath, nil
}

// ReadDescriptor loads an existing dataset.yaml.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return &desc, nil
}

// readClassFile reads a flat newline-delimited class list, skipping blank
// lines.
func readClassFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			names = append(names, name)
		}
	}
	return names, scanner.Err()
}
