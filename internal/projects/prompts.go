package projects

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const promptsFileName = "prompts.json"

// PromptStore persists per-project custom system prompts to prompts.json
// in the same configuration directory as the project registry.
type PromptStore struct {
	path    string
	prompts map[string]string
}

// NewPromptStore opens the prompt store in dataDir. A missing or empty
// file starts empty.
func NewPromptStore(dataDir string) (*PromptStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating prompts directory: %w", err)
	}

	s := &PromptStore{
		path:    filepath.Join(dataDir, promptsFileName),
		prompts: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.prompts); err != nil {
		return nil, fmt.Errorf("parsing prompts file %s: %w", s.path, err)
	}
	return s, nil
}

// Get returns the prompt for a project, or "" if none is set.
func (s *PromptStore) Get(projectID string) string {
	return s.prompts[projectID]
}

// Set stores the prompt for a project and persists.
func (s *PromptStore) Set(projectID, prompt string) error {
	s.prompts[projectID] = prompt
	return s.save()
}

// Delete removes a project's prompt, if any, and persists.
func (s *PromptStore) Delete(projectID string) error {
	if _, ok := s.prompts[projectID]; !ok {
		return nil
	}
	delete(s.prompts, projectID)
	return s.save()
}

func (s *PromptStore) save() error {
	data, err := json.MarshalIndent(s.prompts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling prompts: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing prompts file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing prompts file: %w", err)
	}
	return nil
}
