package skills

import (
	"testing"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmptyInput(t *testing.T) {
	a := Analyze(nil, model.ContributionSummary{})

	assert.Empty(t, a.Skills)
	assert.Equal(t, 0, a.Categories.Total())
	assert.Equal(t, model.ExperienceBeginner, a.ExperienceLevel)
	assert.Equal(t, []string{"Software Developer"}, a.CareerGoals)
	assert.Empty(t, a.Interests)
}

func TestAnalyze(t *testing.T) {
	repos := []model.RepositoryRecord{
		{
			ID:          1,
			Name:        "shop",
			Language:    github.String("TypeScript"),
			Languages:   map[string]int{"TypeScript": 80000, "CSS": 4000},
			Topics:      []string{"nextjs", "ecommerce"},
			Description: github.String("A React + TypeScript app using Supabase and Docker"),
			Stars:       12,
		},
	}

	a := Analyze(repos, model.ContributionSummary{TotalCommits: 40, ActiveRepositories: 1})

	assert.Equal(t, []string{"css", "docker", "ecommerce", "nextjs", "react", "supabase", "typescript"}, a.Skills.Sorted())
	assert.Equal(t, []string{"css", "typescript"}, a.Categories.Programming)
	assert.Equal(t, []string{"nextjs", "react"}, a.Categories.Frameworks)
	assert.Equal(t, []string{"supabase"}, a.Categories.Databases)
	assert.Equal(t, []string{"docker", "ecommerce"}, a.Categories.Tools)
	assert.InDelta(t, 2+6+4+3, a.ExperienceScore, 0.0001)
	assert.Equal(t, model.ExperienceBeginner, a.ExperienceLevel)
	assert.Equal(t, []string{"Frontend Developer", "DevOps Engineer"}, a.CareerGoals)
}
