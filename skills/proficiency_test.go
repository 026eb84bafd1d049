package skills

import (
	"fmt"
	"testing"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
)

func pythonRepos(count, bytes int) []model.RepositoryRecord {
	repos := make([]model.RepositoryRecord, count)
	for i := range repos {
		repos[i] = model.RepositoryRecord{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("repo%d", i+1),
			HTMLURL:   fmt.Sprintf("https://github.com/octocat/repo%d", i+1),
			Language:  github.String("Python"),
			Languages: map[string]int{"Python": bytes},
			Stars:     i + 1,
		}
	}
	return repos
}

func TestEstimateProficiency(t *testing.T) {
	tests := []struct {
		name             string
		skill            string
		repos            []model.RepositoryRecord
		expectedTier     model.ProficiencyTier
		expectedRelevant int
		expectedUsage    float64
	}{
		{
			name:         "No repositories",
			skill:        "python",
			expectedTier: model.TierNovice,
		},
		{
			name:  "Unrelated repositories",
			skill: "rust",
			repos: pythonRepos(3, 100000),

			expectedTier: model.TierNovice,
		},
		{
			name:  "Single repository",
			skill: "go",
			repos: []model.RepositoryRecord{
				{ID: 1, Name: "svc", Language: github.String("Go"), Languages: map[string]int{"Go": 50000}},
			},
			expectedTier:     model.TierBeginner,
			expectedRelevant: 1,
			expectedUsage:    5.5,
		},
		{
			name:             "Three heavy repositories",
			skill:            "PYTHON",
			repos:            pythonRepos(3, 100000),
			expectedTier:     model.TierIntermediate,
			expectedRelevant: 3,
			expectedUsage:    31.5,
		},
		{
			name:             "Five heavy repositories",
			skill:            "python",
			repos:            pythonRepos(5, 120000),
			expectedTier:     model.TierAdvanced,
			expectedRelevant: 5,
			expectedUsage:    62.5,
		},
		{
			name:             "Many repositories with little code",
			skill:            "python",
			repos:            pythonRepos(5, 1000),
			expectedTier:     model.TierBeginner,
			expectedRelevant: 5,
			expectedUsage:    3,
		},
		{
			name:  "Topic only",
			skill: "docker",
			repos: []model.RepositoryRecord{
				{ID: 1, Name: "infra", Topics: []string{"Docker-Compose", "docker"}},
			},
			expectedTier:     model.TierBeginner,
			expectedRelevant: 1,
			expectedUsage:    0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimate := EstimateProficiency(tt.skill, tt.repos)

			assert.Equal(t, tt.expectedTier, estimate.Tier)
			assert.Equal(t, tt.expectedRelevant, estimate.RelevantRepos)
			assert.InDelta(t, tt.expectedUsage, estimate.Usage, 0.0001)
			assert.Len(t, estimate.Projects, tt.expectedRelevant)
		})
	}
}

func TestEstimateProficiencyRelatedProjects(t *testing.T) {
	estimate := EstimateProficiency("python", pythonRepos(7, 10))

	assert.Equal(t, 7, estimate.RelevantRepos)
	assert.Len(t, estimate.Projects, MaxRelatedProjects)

	stars := make([]int, 0, len(estimate.Projects))
	for _, p := range estimate.Projects {
		stars = append(stars, p.Stars)
	}
	assert.Equal(t, []int{7, 6, 5, 4, 3}, stars)
	assert.Equal(t, "https://github.com/octocat/repo7", estimate.Projects[0].URL)
}

func TestTierForIsMonotonic(t *testing.T) {
	usages := []float64{0, 1, 10, 20, 20.5, 50, 50.5, 100}

	for repos := 0; repos <= 8; repos++ {
		for i, usage := range usages {
			current := TierFor(repos, usage).Rank()

			if repos > 0 {
				assert.LessOrEqual(t, TierFor(repos-1, usage).Rank(), current, "repos=%d usage=%v", repos, usage)
			}
			if i > 0 {
				assert.LessOrEqual(t, TierFor(repos, usages[i-1]).Rank(), current, "repos=%d usage=%v", repos, usage)
			}
		}
	}

	assert.Equal(t, model.TierNovice, TierFor(0, 1000))
}
