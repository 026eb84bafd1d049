package skills

import "github.com/FlorianRuen/skillsync/model"

// Experience score weights and tier thresholds. They are a heuristic policy,
// not derived from any benchmark.
var (
	WeightRepository       = 2.0
	WeightStar             = 0.5
	WeightCommit           = 0.1
	WeightActiveRepository = 3.0

	SeniorThreshold       = 100.0
	IntermediateThreshold = 50.0
	JuniorThreshold       = 20.0
)

// ScoreExperience computes the raw experience score of a user
func ScoreExperience(repos []model.RepositoryRecord, contributions model.ContributionSummary) float64 {
	totalStars := 0
	for _, r := range repos {
		totalStars += r.Stars
	}

	return float64(len(repos))*WeightRepository +
		float64(totalStars)*WeightStar +
		float64(contributions.TotalCommits)*WeightCommit +
		float64(contributions.ActiveRepositories)*WeightActiveRepository
}

// ExperienceTierFor maps a score to its experience level
func ExperienceTierFor(score float64) model.ExperienceLevel {
	switch {
	case score >= SeniorThreshold:
		return model.ExperienceSenior
	case score >= IntermediateThreshold:
		return model.ExperienceIntermediate
	case score >= JuniorThreshold:
		return model.ExperienceJunior
	default:
		return model.ExperienceBeginner
	}
}
