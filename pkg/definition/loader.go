package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formexpr/pkg/model"
)

// Store holds form definitions keyed by form id. It is read-only once
// loaded.
type Store struct {
	forms   map[string]model.Form
	sources map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		forms:   make(map[string]model.Form),
		sources: make(map[string]string),
	}
}

// LoadFS walks fsys and parses every JSON/YAML form definition. A file holds
// either one form or a `forms:` list. When fsys is nil the returned store is
// empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := NewStore()
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		forms, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, form := range forms {
			if err := store.add(form, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Add registers a form built elsewhere, for example imported from OpenAPI.
func (s *Store) Add(form model.Form, source string) error {
	return s.add(form, source)
}

func (s *Store) add(form model.Form, source string) error {
	form = form.Normalize()
	form.ID = strings.TrimSpace(form.ID)
	if err := form.Validate(); err != nil {
		return fmt.Errorf("definition: %s: %w", source, err)
	}
	if prev, exists := s.sources[form.ID]; exists {
		return fmt.Errorf("definition: duplicate form %q (files %s and %s)", form.ID, prev, source)
	}
	s.forms[form.ID] = form
	s.sources[form.ID] = source
	return nil
}

// Form returns the definition for id.
func (s *Store) Form(id string) (model.Form, bool) {
	if s == nil {
		return model.Form{}, false
	}
	form, ok := s.forms[id]
	return form, ok
}

// Source reports the file a form was loaded from.
func (s *Store) Source(id string) string {
	if s == nil {
		return ""
	}
	return s.sources[id]
}

// IDs lists form ids in lexical order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forms lists every form ordered by id.
func (s *Store) Forms() []model.Form {
	ids := s.IDs()
	out := make([]model.Form, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.forms[id])
	}
	return out
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	model.Form `yaml:",inline"`
	Forms      []model.Form `json:"forms" yaml:"forms"`
}

// Parse decodes one definition file. JSON is tried first, then YAML.
func Parse(data []byte, source string) ([]model.Form, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("definition: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("definition: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}

	forms := append([]model.Form(nil), doc.Forms...)
	if strings.TrimSpace(doc.ID) != "" || len(doc.Fields) > 0 {
		forms = append(forms, doc.Form)
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("definition: file %s defines no forms", source)
	}
	return forms, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
