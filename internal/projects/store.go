// Package projects keeps the registry of local projects and which
// documents belong to each, persisted as a JSON file. The registry only
// tracks membership; the per-project index owns the documents themselves.
package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const projectsFileName = "local_projects.json"

// ErrProjectNotFound indicates an operation on an unknown project id.
var ErrProjectNotFound = errors.New("project not found")

// DocumentRef records that a document is indexed in a project.
type DocumentRef struct {
	IndexedAt time.Time `json:"indexed_at"`
}

// Project is one logical collection of documents.
type Project struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"display_name"`
	CreatedAt   time.Time              `json:"created_at"`
	Documents   map[string]DocumentRef `json:"documents"`
}

// Store loads and saves local projects to a JSON file under dataDir.
type Store struct {
	dataDir  string
	path     string
	projects map[string]*Project
}

// NewStore opens the registry in dataDir, creating the directory if
// needed. A missing or empty file starts an empty registry; a corrupt
// file is reported.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating projects directory: %w", err)
	}

	s := &Store{
		dataDir:  dataDir,
		path:     filepath.Join(dataDir, projectsFileName),
		projects: make(map[string]*Project),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading projects file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.projects); err != nil {
		return nil, fmt.Errorf("parsing projects file %s: %w", s.path, err)
	}
	for _, p := range s.projects {
		if p.Documents == nil {
			p.Documents = make(map[string]DocumentRef)
		}
	}
	return s, nil
}

// Create registers a new project and returns its generated id. The id
// embeds a timestamp and a slug of the display name, so ids sort by
// creation time and stay readable in the data directory.
func (s *Store) Create(displayName string) (string, error) {
	if strings.TrimSpace(displayName) == "" {
		return "", fmt.Errorf("display name is required")
	}

	now := time.Now()
	id := fmt.Sprintf("local_%s_%s", now.Format("20060102_150405"), slug(displayName))

	s.projects[id] = &Project{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now.UTC(),
		Documents:   make(map[string]DocumentRef),
	}
	if err := s.save(); err != nil {
		delete(s.projects, id)
		return "", err
	}
	return id, nil
}

// Get returns the project with the given id, or nil if unknown.
func (s *Store) Get(id string) *Project {
	return s.projects[id]
}

// List returns all projects sorted by creation time.
func (s *Store) List() []*Project {
	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a project from the registry.
func (s *Store) Delete(id string) error {
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrProjectNotFound)
	}
	removed := s.projects[id]
	delete(s.projects, id)
	if err := s.save(); err != nil {
		s.projects[id] = removed
		return err
	}
	return nil
}

// AddDocument records that a document was indexed into a project.
func (s *Store) AddDocument(projectID, documentName string) error {
	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("%s: %w", projectID, ErrProjectNotFound)
	}
	p.Documents[documentName] = DocumentRef{IndexedAt: time.Now().UTC()}
	return s.save()
}

// RemoveDocument drops a document from a project's membership.
func (s *Store) RemoveDocument(projectID, documentName string) error {
	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("%s: %w", projectID, ErrProjectNotFound)
	}
	if _, ok := p.Documents[documentName]; !ok {
		return fmt.Errorf("document %q not in project %s", documentName, projectID)
	}
	delete(p.Documents, documentName)
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.projects, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling projects: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing projects file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing projects file: %w", err)
	}
	return nil
}

// slug lowercases the name and replaces whitespace with underscores.
func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}
