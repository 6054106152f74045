// Package registry implements the vehicle-class store backed by a JSON
// file. The dataset pipeline consumes it read-only; management commands
// may add, update and remove classes.
package registry

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// Class is a single vehicle class definition.
type Class struct {
	ID          int    `json:"class_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Shortcut    string `json:"shortcut_key,omitempty"`
}

// storeFile is the on-disk document layout.
type storeFile struct {
	Classes []Class `json:"classes"`
	NextID  int     `json:"next_id"`
}

// DefaultClasses returns the built-in four-class vehicle list used when no
// registry file exists yet.
func DefaultClasses() []Class {
	return []Class{
		{ID: 0, Name: "motorcycle", Enabled: true},
		{ID: 1, Name: "car", Enabled: true},
		{ID: 2, Name: "truck", Enabled: true},
		{ID: 3, Name: "bus", Enabled: true},
	}
}

// Store manages vehicle classes persisted in a JSON file.
type Store struct {
	path    string
	classes map[int]Class
	nextID  int
}

// Open loads the registry from path, seeding it with the default classes
// when the file does not exist. The file is not created until Save.
func Open(path string) (*Store, error) {
	s := &Store{path: path, classes: make(map[int]Class)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			for _, c := range DefaultClasses() {
				s.classes[c.ID] = c
			}
			s.nextID = len(s.classes)
			return s, nil
		}
		return nil, errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	var doc storeFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	for _, c := range doc.Classes {
		s.classes[c.ID] = c
	}
	s.nextID = doc.NextID
	if s.nextID < len(s.classes) {
		s.nextID = len(s.classes)
	}

	return s, nil
}

// Save persists the registry back to its file.
func (s *Store) Save() error {
	doc := storeFile{Classes: s.All(false), NextID: s.nextID}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return errors.Wrap(err).Component("registry").Build()
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}
	return nil
}

// Add registers a new class under the next free id and returns it.
func (s *Store) Add(name, description string) (Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Class{}, errors.ValidationError("class name must not be empty")
	}
	for _, c := range s.classes {
		if c.Name == name {
			return Class{}, errors.Newf("class %q already exists with id %d", name, c.ID).
				Component("registry").
				Category(errors.CategoryValidation).
				Build()
		}
	}

	c := Class{ID: s.nextID, Name: name, Description: description, Enabled: true}
	s.classes[c.ID] = c
	s.nextID++
	return c, nil
}

// Update replaces an existing class definition.
func (s *Store) Update(c Class) error {
	if _, ok := s.classes[c.ID]; !ok {
		return errors.Newf("class id %d not found", c.ID).
			Component("registry").
			Category(errors.CategoryResourceMissing).
			Build()
	}
	s.classes[c.ID] = c
	return nil
}

// Delete removes a class by id.
func (s *Store) Delete(id int) error {
	if _, ok := s.classes[id]; !ok {
		return errors.Newf("class id %d not found", id).
			Component("registry").
			Category(errors.CategoryResourceMissing).
			Build()
	}
	delete(s.classes, id)
	return nil
}

// Get returns the class with the given id.
func (s *Store) Get(id int) (Class, bool) {
	c, ok := s.classes[id]
	return c, ok
}

// All returns the classes ordered by id. When enabledOnly is set, disabled
// classes are filtered out.
func (s *Store) All(enabledOnly bool) []Class {
	out := make([]Class, 0, len(s.classes))
	for _, c := range s.classes {
		if enabledOnly && !c.Enabled {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Names returns the ordered class-name list. This is the read-only view
// the dataset descriptor consumes.
func (s *Store) Names(enabledOnly bool) ([]string, error) {
	classes := s.All(enabledOnly)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names, nil
}

// ExportTxt writes the enabled class names as a flat newline-delimited
// file, one name per line in id order.
func (s *Store) ExportTxt(path string) error {
	names, _ := s.Names(true)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}

// ImportTxt replaces the registry content with the classes listed in a
// flat newline-delimited file. Blank lines are skipped.
func (s *Store) ImportTxt(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer f.Close()

	classes := make(map[int]Class)
	id := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		classes[id] = Class{ID: id, Name: name, Enabled: true}
		id++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err).
			Component("registry").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	if id == 0 {
		return errors.ValidationError("no classes found in %s", path)
	}

	s.classes = classes
	s.nextID = id
	return nil
}
