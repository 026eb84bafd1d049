package skills

import (
	"testing"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/stretchr/testify/assert"
)

func TestSuggestResources(t *testing.T) {
	resources := SuggestResources("C#", model.CategoryProgramming)

	assert.Len(t, resources, 2)
	assert.Equal(t, model.LearningResource{
		Title: "Exercism C# track",
		URL:   "https://exercism.org/tracks/c%23",
		Kind:  "practice",
	}, resources[0])
}

func TestSuggestResourcesEveryCategory(t *testing.T) {
	categories := []model.SkillCategory{
		model.CategoryProgramming,
		model.CategoryFrameworks,
		model.CategoryDatabases,
		model.CategoryTools,
		model.CategoryCloud,
	}

	for _, c := range categories {
		assert.NotEmpty(t, SuggestResources("docker", c), c)
	}
	assert.Empty(t, SuggestResources("docker", model.SkillCategory("unknown")))
}
