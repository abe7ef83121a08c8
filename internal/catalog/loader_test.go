package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/models"
)

const goBasics = `
id: go-basics
title: Go Basics
difficulty: beginner
topics:
  - id: syntax
    title: Syntax
    lessons: [variables, functions]
  - id: empty
    title: Coming soon
  - id: types
    title: Types
    lessons: [structs]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go-basics.yaml"), goBasics)
	writeFile(t, filepath.Join(dir, "backend", "sql.yml"), "title: SQL\ntopics:\n  - id: t1\n    lessons: [select]\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "topics: [unterminated")
	writeFile(t, filepath.Join(dir, "dup.yaml"), "id: dup\ntopics:\n  - lessons: [a, a]\n")

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))

	list := loader.List()
	require.Len(t, list, 2)
	assert.Equal(t, "go-basics", list[0].CourseID)
	assert.Equal(t, "sql", list[1].CourseID, "id falls back to file name")

	c, err := loader.Curriculum(context.Background(), "go-basics")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Go Basics", c.Title)
	assert.Len(t, c.Topics, 3)
	assert.Equal(t, 3, c.TotalLessons())
	assert.True(t, c.HasLesson("structs"))
	assert.False(t, c.HasLesson("pointers"))
}

func TestLoadFromDir_Missing(t *testing.T) {
	err := NewLoader().LoadFromDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCurriculum_Unknown(t *testing.T) {
	c, err := NewLoader().Curriculum(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       models.Curriculum
		wantErr bool
	}{
		{"valid", models.Curriculum{CourseID: "c", Topics: []models.Topic{{Lessons: []string{"a", "b"}}}}, false},
		{"empty course", models.Curriculum{CourseID: "c"}, false},
		{"missing id", models.Curriculum{}, true},
		{"duplicate across topics", models.Curriculum{CourseID: "c", Topics: []models.Topic{{Lessons: []string{"a"}}, {Lessons: []string{"a"}}}}, true},
		{"blank lesson", models.Curriculum{CourseID: "c", Topics: []models.Topic{{Lessons: []string{""}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryCounter(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()

	n, err := c.Increment(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, _ = c.Increment(ctx, "go")

	got, err := c.Count(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = c.Count(ctx, "rust")
	require.NoError(t, err)
	assert.Zero(t, got)
}
