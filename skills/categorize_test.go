package skills

import (
	"testing"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	tests := map[string]model.SkillCategory{
		"go":               model.CategoryProgramming,
		"TypeScript":       model.CategoryProgramming,
		"javascript":       model.CategoryProgramming,
		"django":           model.CategoryFrameworks,
		"react":            model.CategoryFrameworks,
		"gin":              model.CategoryFrameworks,
		"mongodb":          model.CategoryDatabases,
		"postgresql":       model.CategoryDatabases,
		"supabase":         model.CategoryDatabases,
		"docker":           model.CategoryTools,
		"nginx":            model.CategoryTools,
		"aws":              model.CategoryCloud,
		"kubernetes":       model.CategoryCloud,
		"quantum-widgetry": model.CategoryTools,
	}

	for skill, expected := range tests {
		assert.Equal(t, expected, CategoryOf(skill), "skill %q", skill)
	}
}

func TestCategorizeIsAPartition(t *testing.T) {
	set := NewSkillSet(
		"go", "javascript", "react", "django", "postgresql", "mongodb", "docker",
		"aws", "kubernetes", "quantum-widgetry", "git", "cli", "machine-learning",
	)

	c := Categorize(set)

	assert.Equal(t, len(set), c.Total())

	seen := map[string]int{}
	for _, bucket := range [][]string{c.Programming, c.Frameworks, c.Databases, c.Tools, c.Cloud} {
		for _, s := range bucket {
			seen[s]++
		}
	}
	for skill := range set {
		assert.Equal(t, 1, seen[skill], "skill %q must be in exactly one bucket", skill)
	}

	assert.Equal(t, []string{"go", "javascript"}, c.Programming)
	assert.Equal(t, []string{"django", "react"}, c.Frameworks)
	assert.Equal(t, []string{"mongodb", "postgresql"}, c.Databases)
	assert.Equal(t, []string{"cli", "docker", "git", "machine-learning", "quantum-widgetry"}, c.Tools)
	assert.Equal(t, []string{"aws", "kubernetes"}, c.Cloud)
}

func TestCategorizeEmpty(t *testing.T) {
	c := Categorize(NewSkillSet())

	assert.Equal(t, 0, c.Total())
	assert.NotNil(t, c.Programming)
	assert.Empty(t, c.Programming)
	assert.Empty(t, c.Frameworks)
	assert.Empty(t, c.Databases)
	assert.Empty(t, c.Tools)
	assert.Empty(t, c.Cloud)
}
