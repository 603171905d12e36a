// Package scenario loads and replays declarative entity-index workloads
// described in YAML.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	OpCreate      = "create"
	OpDelete      = "delete"
	OpDeleteTwice = "delete_twice"
	OpExpect      = "expect"
	OpMap         = "map"
)

var ErrInvalid = errors.New("invalid scenario")

// Scenario is one YAML file: a named list of steps replayed on a fresh
// world.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
	Path  string `yaml:"-"`
}

// Step is one operation. Count applies to create and map; Order to delete.
type Step struct {
	Op     string `yaml:"op"`
	Count  int    `yaml:"count"`
	Order  string `yaml:"order"` // "forward" (default) or "reverse"
	Expect `yaml:",inline"`
}

// Expect holds the checks of an expect step, plus Buckets for map steps.
// Nil fields are not checked.
type Expect struct {
	Alive      *bool   `yaml:"alive"`       // every captured id alive (or dead)
	AliveCount *int    `yaml:"alive_count"` // sentinel included
	Generation *uint16 `yaml:"generation"`  // of every captured id
	Pages      *int    `yaml:"pages"`
	MaxId      *uint32 `yaml:"max_id"`
	StaleDead  *bool   `yaml:"stale_dead"` // every deleted handle still dead
	Reused     *bool   `yaml:"reused"`     // every captured index was seen deleted
	Buckets    *int    `yaml:"buckets"`
}

// Load reads and validates one scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.Path = path
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadDir loads every .yaml and .yml file in dir, sorted by file name.
// A missing dir yields no scenarios.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	out := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	for i, st := range sc.Steps {
		switch st.Op {
		case OpCreate, OpMap:
			if st.Count < 0 {
				return fmt.Errorf("%w: step %d: negative count", ErrInvalid, i)
			}
		case OpDelete:
			if st.Order != "" && st.Order != "forward" && st.Order != "reverse" {
				return fmt.Errorf("%w: step %d: unknown order %q", ErrInvalid, i, st.Order)
			}
		case OpDeleteTwice, OpExpect:
		default:
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalid, i, st.Op)
		}
	}
	return nil
}
