package skills

import (
	"regexp"
	"strings"

	"github.com/FlorianRuen/skillsync/model"
)

const (
	MaxCareerGoals   = 5
	MaxLearningGoals = 8
	MaxInterests     = 15

	DefaultCareerGoal = "Software Developer"
)

type goalRule struct {
	label string
	when  func(c CategorizedSkills) bool
}

func hasFrontend(c CategorizedSkills) bool {
	return c.hasAny(model.CategoryFrameworks, "react", "vue", "angular", "svelte", "nextjs", "next", "nuxt")
}

func hasBackend(c CategorizedSkills) bool {
	return c.hasAny(model.CategoryFrameworks, "express", "django", "flask", "fastapi", "spring", "rails", "laravel", "symfony", "nestjs", "nodejs", "node", "gin", "echo", "fiber", "dotnet")
}

func hasContainers(c CategorizedSkills) bool {
	return c.hasAny(model.CategoryTools, "docker") || c.hasAny(model.CategoryCloud, "kubernetes", "k8s")
}

// careerRules keep their literal order, a label can be produced by several rules
var careerRules = []goalRule{
	{"Frontend Developer", hasFrontend},
	{"Backend Developer", hasBackend},
	{"Full Stack Developer", func(c CategorizedSkills) bool { return hasFrontend(c) && hasBackend(c) }},
	{"DevOps Engineer", func(c CategorizedSkills) bool { return len(c.Cloud) > 0 || hasContainers(c) }},
	{"Data Scientist", func(c CategorizedSkills) bool { return c.hasAny(model.CategoryProgramming, "python", "r") }},
	{"Machine Learning Engineer", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryFrameworks, "tensorflow", "pytorch", "scikit") || c.hasAny(model.CategoryTools, "machine-learning")
	}},
	{"Mobile Developer", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryFrameworks, "flutter", "react-native") || c.hasAny(model.CategoryProgramming, "swift", "kotlin", "dart")
	}},
	{"Database Engineer", func(c CategorizedSkills) bool { return len(c.Databases) >= 2 }},
}

var learningRules = []goalRule{
	{"TypeScript", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryProgramming, "javascript") && !c.hasAny(model.CategoryProgramming, "typescript")
	}},
	{"Next.js", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryFrameworks, "react") && !c.hasAny(model.CategoryFrameworks, "nextjs", "next")
	}},
	{"Node.js", func(c CategorizedSkills) bool { return hasFrontend(c) && !hasBackend(c) }},
	{"React", func(c CategorizedSkills) bool { return hasBackend(c) && !hasFrontend(c) }},
	{"FastAPI", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryProgramming, "python") && !c.hasAny(model.CategoryFrameworks, "django", "flask", "fastapi")
	}},
	{"SQL Databases", func(c CategorizedSkills) bool { return len(c.Programming) > 0 && len(c.Databases) == 0 }},
	{"Redis", func(c CategorizedSkills) bool {
		return len(c.Databases) > 0 && !c.hasAny(model.CategoryDatabases, "redis")
	}},
	{"Docker", func(c CategorizedSkills) bool { return !c.hasAny(model.CategoryTools, "docker") }},
	{"Kubernetes", func(c CategorizedSkills) bool {
		return c.hasAny(model.CategoryTools, "docker") && !c.hasAny(model.CategoryCloud, "kubernetes", "k8s")
	}},
	{"Cloud Platforms (AWS)", func(c CategorizedSkills) bool { return len(c.Cloud) == 0 }},
	{"Testing with Jest", func(c CategorizedSkills) bool { return hasFrontend(c) && !c.hasAny(model.CategoryTools, "jest") }},
	{"GraphQL", func(c CategorizedSkills) bool { return hasBackend(c) && !c.hasAny(model.CategoryTools, "graphql") }},
}

func applyRules(rules []goalRule, c CategorizedSkills, limit int) []string {
	out := make([]string, 0, limit)
	for _, r := range rules {
		if len(out) >= limit {
			break
		}
		if r.when(c) {
			out = append(out, r.label)
		}
	}
	return out
}

// SuggestCareerGoals applies careerRules in order, Software Developer when none match
func SuggestCareerGoals(c CategorizedSkills) []string {
	goals := applyRules(careerRules, c, MaxCareerGoals)
	if len(goals) == 0 {
		return []string{DefaultCareerGoal}
	}
	return goals
}

// SuggestLearningGoals proposes skills complementary to the current ones
func SuggestLearningGoals(c CategorizedSkills) []string {
	return applyRules(learningRules, c, MaxLearningGoals)
}

type interestDomain struct {
	label   string
	pattern *regexp.Regexp
}

func domain(label string, keywords ...string) interestDomain {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return interestDomain{label: label, pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)}
}

var interestDomains = []interestDomain{
	domain("Web Development", "web", "website", "frontend", "webapp"),
	domain("Machine Learning", "machine-learning", "machine learning", "ml", "ai", "deep-learning", "llm"),
	domain("Data Science", "data-science", "data science", "analytics", "pandas", "jupyter"),
	domain("Mobile Development", "mobile", "android", "ios", "flutter"),
	domain("DevOps", "devops", "ci", "cd", "docker", "kubernetes"),
	domain("Cloud Computing", "cloud", "aws", "azure", "gcp", "serverless"),
	domain("Game Development", "game", "games", "gamedev", "unity", "godot"),
	domain("Blockchain", "blockchain", "web3", "ethereum", "solidity"),
	domain("Cybersecurity", "security", "ctf", "pentest", "cryptography"),
	domain("APIs", "api", "rest", "graphql"),
	domain("IoT", "iot", "arduino", "raspberry-pi", "embedded"),
	domain("Developer Tools", "cli", "tooling", "devtools"),
}

// SuggestInterests lists repository topics then domain labels found in the repositories
func SuggestInterests(repos []model.RepositoryRecord) []string {
	out := make([]string, 0, MaxInterests)
	seen := make(map[string]struct{})

	add := func(interest string) {
		key := Normalize(interest)
		if key == "" || len(out) >= MaxInterests {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, interest)
	}

	var corpus strings.Builder
	for _, r := range repos {
		for _, topic := range r.Topics {
			add(Normalize(topic))
		}

		corpus.WriteString(r.Name)
		corpus.WriteByte(' ')
		if r.Description != nil {
			corpus.WriteString(*r.Description)
			corpus.WriteByte(' ')
		}
		corpus.WriteString(strings.Join(r.Topics, " "))
		corpus.WriteByte('\n')
	}

	text := corpus.String()
	for _, d := range interestDomains {
		if d.pattern.MatchString(text) {
			add(d.label)
		}
	}

	return out
}
