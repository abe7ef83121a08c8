// Package catalog serves the read-only course curricula the progress core
// resolves lesson order against, plus the per-course enrollment counter.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/progress-engine/internal/models"
)

// Source resolves curricula by course ID.
// Curriculum returns (nil, nil) for an unknown course.
type Source interface {
	Curriculum(ctx context.Context, courseID string) (*models.Curriculum, error)
}

// Loader manages loading and caching of course curricula
type Loader struct {
	mu      sync.RWMutex
	courses map[string]*models.Curriculum
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{courses: make(map[string]*models.Curriculum)}
}

// LoadFromDir loads every *.yaml / *.yml curriculum in dir and its direct
// subdirectories. Invalid files are logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*/*.yaml", "*/*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load curriculum", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("catalog loaded", "dir", dir, "courses", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single curriculum from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var c models.Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Course ID falls back to the file name without extension
	if c.CourseID == "" {
		base := filepath.Base(path)
		c.CourseID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := l.Add(&c); err != nil {
		return err
	}

	slog.Debug("curriculum loaded", "course_id", c.CourseID, "topics", len(c.Topics), "lessons", c.TotalLessons())
	return nil
}

// Add validates and registers a curriculum, replacing any previous version
func (l *Loader) Add(c *models.Curriculum) error {
	if err := Validate(c); err != nil {
		return err
	}

	l.mu.Lock()
	l.courses[c.CourseID] = c
	l.mu.Unlock()
	return nil
}

// Validate checks that a curriculum has an ID and no repeated lesson IDs
func Validate(c *models.Curriculum) error {
	if c.CourseID == "" {
		return fmt.Errorf("course id is required")
	}

	seen := make(map[string]bool)
	for i, t := range c.Topics {
		for _, lesson := range t.Lessons {
			if lesson == "" {
				return fmt.Errorf("course %s topic %d: empty lesson id", c.CourseID, i)
			}
			if seen[lesson] {
				return fmt.Errorf("course %s: lesson %s appears more than once", c.CourseID, lesson)
			}
			seen[lesson] = true
		}
	}
	return nil
}

// Curriculum returns the curriculum of courseID, or nil if unknown
func (l *Loader) Curriculum(ctx context.Context, courseID string) (*models.Curriculum, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.courses[courseID], nil
}

// List returns all curricula ordered by course ID
func (l *Loader) List() []*models.Curriculum {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Curriculum, 0, len(l.courses))
	for _, c := range l.courses {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID < result[j].CourseID })
	return result
}
