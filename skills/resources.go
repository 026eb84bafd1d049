package skills

import (
	"fmt"
	"net/url"

	"github.com/FlorianRuen/skillsync/model"
)

var resourcesByCategory = map[model.SkillCategory][]model.LearningResource{
	model.CategoryProgramming: {
		{Title: "Exercism %s track", URL: "https://exercism.org/tracks/%s", Kind: "practice"},
		{Title: "%s on Rosetta Code", URL: "https://rosettacode.org/wiki/Category:%s", Kind: "practice"},
	},
	model.CategoryFrameworks: {
		{Title: "%s on roadmap.sh", URL: "https://roadmap.sh/%s", Kind: "course"},
		{Title: "%s questions on Stack Overflow", URL: "https://stackoverflow.com/questions/tagged/%s", Kind: "docs"},
	},
	model.CategoryDatabases: {
		{Title: "%s on DB-Engines", URL: "https://db-engines.com/en/system/%s", Kind: "docs"},
		{Title: "%s questions on Stack Overflow", URL: "https://stackoverflow.com/questions/tagged/%s", Kind: "docs"},
	},
	model.CategoryTools: {
		{Title: "%s topic on GitHub", URL: "https://github.com/topics/%s", Kind: "practice"},
		{Title: "%s on roadmap.sh", URL: "https://roadmap.sh/%s", Kind: "course"},
	},
	model.CategoryCloud: {
		{Title: "%s on roadmap.sh", URL: "https://roadmap.sh/%s", Kind: "course"},
		{Title: "%s topic on GitHub", URL: "https://github.com/topics/%s", Kind: "practice"},
	},
}

// SuggestResources fills the category resource templates with the skill name
func SuggestResources(skill string, category model.SkillCategory) []model.LearningResource {
	templates := resourcesByCategory[category]
	out := make([]model.LearningResource, 0, len(templates))

	escaped := url.PathEscape(Normalize(skill))
	for _, t := range templates {
		out = append(out, model.LearningResource{
			Title: fmt.Sprintf(t.Title, skill),
			URL:   fmt.Sprintf(t.URL, escaped),
			Kind:  t.Kind,
		})
	}

	return out
}
