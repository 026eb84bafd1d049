package skills

import (
	"sort"
	"strings"

	"github.com/FlorianRuen/skillsync/model"
)

// Usage signal weights and tier thresholds, tunable like the experience ones
var (
	PrimaryLanguageWeight = 0.5
	TopicWeight           = 0.3
	BytesPerUsagePoint    = 10000.0

	AdvancedMinRepos     = 5
	AdvancedMinUsage     = 50.0
	IntermediateMinRepos = 3
	IntermediateMinUsage = 20.0

	MaxRelatedProjects = 5
)

// ProficiencyEstimate is the result of EstimateProficiency
type ProficiencyEstimate struct {
	Tier          model.ProficiencyTier
	RelevantRepos int
	Usage         float64
	Projects      []model.ProjectReference
}

// EstimateProficiency scores how much a skill is used across the repositories
func EstimateProficiency(skill string, repos []model.RepositoryRecord) ProficiencyEstimate {
	s := Normalize(skill)
	estimate := ProficiencyEstimate{Tier: model.TierNovice, Projects: []model.ProjectReference{}}
	if s == "" {
		return estimate
	}

	relevant := make([]model.RepositoryRecord, 0)

	for _, r := range repos {
		matched := false

		if r.Language != nil && strings.Contains(strings.ToLower(*r.Language), s) {
			estimate.Usage += PrimaryLanguageWeight
			matched = true
		}

		for lang, bytes := range r.Languages {
			if strings.Contains(strings.ToLower(lang), s) {
				estimate.Usage += float64(bytes) / BytesPerUsagePoint
				matched = true
			}
		}

		for _, topic := range r.Topics {
			if strings.Contains(strings.ToLower(topic), s) {
				estimate.Usage += TopicWeight
				matched = true
				break
			}
		}

		if matched {
			relevant = append(relevant, r)
		}
	}

	estimate.RelevantRepos = len(relevant)
	estimate.Tier = TierFor(estimate.RelevantRepos, estimate.Usage)
	estimate.Projects = relatedProjects(relevant)

	return estimate
}

// TierFor maps a repository count and usage signal to a proficiency tier
func TierFor(relevantRepos int, usage float64) model.ProficiencyTier {
	switch {
	case relevantRepos >= AdvancedMinRepos && usage > AdvancedMinUsage:
		return model.TierAdvanced
	case relevantRepos >= IntermediateMinRepos && usage > IntermediateMinUsage:
		return model.TierIntermediate
	case relevantRepos >= 1:
		return model.TierBeginner
	default:
		return model.TierNovice
	}
}

func relatedProjects(repos []model.RepositoryRecord) []model.ProjectReference {
	sorted := make([]model.RepositoryRecord, len(repos))
	copy(sorted, repos)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Stars != sorted[j].Stars {
			return sorted[i].Stars > sorted[j].Stars
		}
		return sorted[i].Name < sorted[j].Name
	})

	if len(sorted) > MaxRelatedProjects {
		sorted = sorted[:MaxRelatedProjects]
	}

	projects := make([]model.ProjectReference, 0, len(sorted))
	for _, r := range sorted {
		projects = append(projects, model.ProjectReference{Name: r.Name, URL: r.HTMLURL, Stars: r.Stars})
	}
	return projects
}
