// Package guidance serves the static per-task coaching guidance tables.
// The tables are data, not logic: they ship as YAML (an embedded default
// set plus optional files in the data directory) and are served through a
// read-through store so the prompt templater stays decoupled from the
// content.
package guidance

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/guidance.yaml
var embeddedGuidance []byte

// TaskGuidance is one task's static coaching record.
type TaskGuidance struct {
	TaskID               string   `yaml:"task_id" json:"task_id"`
	Helper               string   `yaml:"helper" json:"helper"`
	Guidance             string   `yaml:"guidance" json:"guidance"`
	CompletionCriteria   []string `yaml:"completion_criteria" json:"completion_criteria,omitempty"`
	ProactiveSuggestions []string `yaml:"proactive_suggestions" json:"proactive_suggestions,omitempty"`
}

// PromptOptions bounds BuildTaskAwarePrompt output.
//
// MaxTokens is accepted for interface stability but NOT enforced: the
// method limits entry count only, never truncates guidance text. Renaming
// or enforcing it is a deliberate open decision — the current count-based
// behavior is pinned by tests so a future change is loud.
type PromptOptions struct {
	MaxTasks  int
	MaxTokens int
}

// Store holds the guidance tables. Safe for concurrent readers; Reload
// swaps the table atomically under the write lock.
type Store struct {
	mu   sync.RWMutex
	byID map[string]TaskGuidance
	dir  string // optional override directory, re-read on Reload
}

// NewStore builds a store from the embedded default tables.
func NewStore() (*Store, error) {
	s := &Store{byID: make(map[string]TaskGuidance)}
	if err := s.mergeYAML(embeddedGuidance); err != nil {
		return nil, fmt.Errorf("embedded guidance is invalid: %w", err)
	}
	return s, nil
}

// LoadDir merges every *.yaml file under dir on top of the embedded tables
// and remembers dir for Reload. A missing directory is not an error — the
// embedded defaults simply stand alone.
func (s *Store) LoadDir(dir string) error {
	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()
	return s.Reload()
}

// Reload re-reads the override directory. Called by the fsnotify watcher.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]TaskGuidance)
	s.byID = fresh
	if err := s.mergeYAMLLocked(embeddedGuidance); err != nil {
		return err
	}
	if s.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return err
		}
		if err := s.mergeYAMLLocked(data); err != nil {
			return fmt.Errorf("guidance file %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (s *Store) mergeYAML(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeYAMLLocked(data)
}

func (s *Store) mergeYAMLLocked(data []byte) error {
	var records []TaskGuidance
	if err := yaml.Unmarshal(data, &records); err != nil {
		return err
	}
	for _, r := range records {
		if r.TaskID == "" {
			continue
		}
		s.byID[r.TaskID] = r
	}
	return nil
}

// Lookup returns the guidance record for a task identifier, if any.
func (s *Store) Lookup(taskID string) (TaskGuidance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[taskID]
	return g, ok
}

// Count returns the number of loaded guidance records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// BuildTaskAwarePrompt concatenates the guidance texts for up to
// opts.MaxTasks of the given task IDs, in input order. IDs without a
// guidance record are skipped and do not count against the limit.
// See PromptOptions for the MaxTokens caveat.
func (s *Store) BuildTaskAwarePrompt(taskIDs []string, opts PromptOptions) string {
	if opts.MaxTasks <= 0 {
		return ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var parts []string
	for _, id := range taskIDs {
		g, ok := s.byID[id]
		if !ok {
			continue
		}
		var sb strings.Builder
		sb.WriteString(g.Guidance)
		if len(g.CompletionCriteria) > 0 {
			sb.WriteString("\nDone when:")
			for _, c := range g.CompletionCriteria {
				sb.WriteString("\n- " + c)
			}
		}
		parts = append(parts, sb.String())
		if len(parts) >= opts.MaxTasks {
			break
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n")
}
