package skills

import (
	"testing"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/stretchr/testify/assert"
)

func reposWithStars(count, starsEach int) []model.RepositoryRecord {
	repos := make([]model.RepositoryRecord, count)
	for i := range repos {
		repos[i] = model.RepositoryRecord{ID: int64(i + 1), Stars: starsEach}
	}
	return repos
}

func TestScoreExperience(t *testing.T) {
	tests := []struct {
		name          string
		repos         []model.RepositoryRecord
		contributions model.ContributionSummary
		expectedScore float64
		expectedLevel model.ExperienceLevel
	}{
		{
			name:          "No activity",
			expectedScore: 0,
			expectedLevel: model.ExperienceBeginner,
		},
		{
			name:          "Sixty repositories alone",
			repos:         reposWithStars(60, 0),
			expectedScore: 120,
			expectedLevel: model.ExperienceSenior,
		},
		{
			name:  "Mixed signals",
			repos: reposWithStars(5, 2),
			contributions: model.ContributionSummary{
				TotalCommits:       150,
				TotalAdditions:     9000,
				TotalDeletions:     3000,
				ActiveRepositories: 4,
			},
			// 5*2 + 10*0.5 + 150*0.1 + 4*3
			expectedScore: 42,
			expectedLevel: model.ExperienceJunior,
		},
		{
			name:          "Stars push to intermediate",
			repos:         reposWithStars(10, 6),
			expectedScore: 50,
			expectedLevel: model.ExperienceIntermediate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreExperience(tt.repos, tt.contributions)
			assert.InDelta(t, tt.expectedScore, score, 0.0001)
			assert.Equal(t, tt.expectedLevel, ExperienceTierFor(score))
		})
	}
}

func TestExperienceTierBoundaries(t *testing.T) {
	tests := map[float64]model.ExperienceLevel{
		0:     model.ExperienceBeginner,
		19.99: model.ExperienceBeginner,
		20:    model.ExperienceJunior,
		49.99: model.ExperienceJunior,
		50:    model.ExperienceIntermediate,
		99.99: model.ExperienceIntermediate,
		100:   model.ExperienceSenior,
		1e6:   model.ExperienceSenior,
	}

	for score, expected := range tests {
		assert.Equal(t, expected, ExperienceTierFor(score), "score %v", score)
	}
}
