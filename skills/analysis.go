package skills

import "github.com/FlorianRuen/skillsync/model"

// Analysis is everything derived from one set of repositories, before persistence
type Analysis struct {
	Skills          SkillSet
	Categories      CategorizedSkills
	ExperienceScore float64
	ExperienceLevel model.ExperienceLevel
	CareerGoals     []string
	LearningGoals   []string
	Interests       []string
}

// Analyze runs extraction, categorization, scoring and suggestions.
// Proficiency is estimated per skill by the caller, only for skills it persists.
func Analyze(repos []model.RepositoryRecord, contributions model.ContributionSummary) Analysis {
	set := Aggregate(repos)
	categories := Categorize(set)
	score := ScoreExperience(repos, contributions)

	return Analysis{
		Skills:          set,
		Categories:      categories,
		ExperienceScore: score,
		ExperienceLevel: ExperienceTierFor(score),
		CareerGoals:     SuggestCareerGoals(categories),
		LearningGoals:   SuggestLearningGoals(categories),
		Interests:       SuggestInterests(repos),
	}
}
