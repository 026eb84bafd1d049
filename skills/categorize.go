package skills

import (
	"strings"

	"github.com/FlorianRuen/skillsync/model"
)

type categoryRule struct {
	category model.SkillCategory
	// exact names too short for substring matching (go would match django)
	exact    []string
	contains []string
}

// categoryRules are evaluated in order, the first matching category wins
var categoryRules = []categoryRule{
	{
		category: model.CategoryProgramming,
		exact:    []string{"go", "c", "r", "c++", "c#", "html", "css", "scss", "shell", "dart", "lua", "perl", "julia", "elixir", "haskell", "ocaml", "zig"},
		contains: []string{"javascript", "typescript", "python", "java", "golang", "rust", "ruby", "php", "swift", "kotlin", "scala", "clojure", "erlang", "objective-c", "powershell", "assembly", "matlab"},
	},
	{
		category: model.CategoryFrameworks,
		exact:    []string{"gin", "echo", "fiber", "next", "nuxt", "node"},
		contains: []string{"react", "vue", "angular", "svelte", "nextjs", "next.js", "nuxt", "express", "django", "flask", "fastapi", "spring", "rails", "laravel", "symfony", "flutter", "tailwind", "bootstrap", "jquery", "nestjs", "nodejs", "node.js", "dotnet", "tensorflow", "pytorch", "pandas", "numpy", "scikit"},
	},
	{
		category: model.CategoryDatabases,
		contains: []string{"sql", "postgres", "mongo", "redis", "mariadb", "firebase", "firestore", "supabase", "dynamodb", "cassandra", "elasticsearch", "neo4j", "couchdb", "influxdb"},
	},
	{
		category: model.CategoryTools,
		contains: []string{"git", "docker", "webpack", "vite", "jest", "npm", "yarn", "bash", "eslint", "babel", "jenkins", "graphql", "prisma", "linux", "vim", "makefile", "cmake"},
	},
	{
		category: model.CategoryCloud,
		exact:    []string{"hcl"},
		contains: []string{"aws", "azure", "gcp", "google-cloud", "heroku", "vercel", "netlify", "kubernetes", "k8s", "terraform", "serverless", "lambda", "cloudflare", "digitalocean", "openshift", "ansible", "helm"},
	},
}

func (r categoryRule) matches(skill string) bool {
	for _, e := range r.exact {
		if skill == e {
			return true
		}
	}
	for _, c := range r.contains {
		if strings.Contains(skill, c) {
			return true
		}
	}
	return false
}

// CategoryOf returns the bucket a skill belongs to, tools when nothing matches
func CategoryOf(skill string) model.SkillCategory {
	s := Normalize(skill)
	for _, rule := range categoryRules {
		if rule.matches(s) {
			return rule.category
		}
	}
	return model.CategoryTools
}

// CategorizedSkills is a partition of a SkillSet, each bucket sorted
type CategorizedSkills struct {
	Programming []string `json:"programming"`
	Frameworks  []string `json:"frameworks"`
	Databases   []string `json:"databases"`
	Tools       []string `json:"tools"`
	Cloud       []string `json:"cloud"`
}

// Categorize places every skill of the set in exactly one bucket
func Categorize(set SkillSet) CategorizedSkills {
	c := CategorizedSkills{
		Programming: []string{},
		Frameworks:  []string{},
		Databases:   []string{},
		Tools:       []string{},
		Cloud:       []string{},
	}

	for _, skill := range set.Sorted() {
		switch CategoryOf(skill) {
		case model.CategoryProgramming:
			c.Programming = append(c.Programming, skill)
		case model.CategoryFrameworks:
			c.Frameworks = append(c.Frameworks, skill)
		case model.CategoryDatabases:
			c.Databases = append(c.Databases, skill)
		case model.CategoryCloud:
			c.Cloud = append(c.Cloud, skill)
		default:
			c.Tools = append(c.Tools, skill)
		}
	}

	return c
}

func (c CategorizedSkills) Bucket(category model.SkillCategory) []string {
	switch category {
	case model.CategoryProgramming:
		return c.Programming
	case model.CategoryFrameworks:
		return c.Frameworks
	case model.CategoryDatabases:
		return c.Databases
	case model.CategoryCloud:
		return c.Cloud
	default:
		return c.Tools
	}
}

func (c CategorizedSkills) Total() int {
	return len(c.Programming) + len(c.Frameworks) + len(c.Databases) + len(c.Tools) + len(c.Cloud)
}

// hasAny reports whether a bucket holds one of the names, or a skill containing it
func (c CategorizedSkills) hasAny(category model.SkillCategory, names ...string) bool {
	for _, skill := range c.Bucket(category) {
		for _, n := range names {
			if skill == n || (len(n) > 2 && strings.Contains(skill, n)) {
				return true
			}
		}
	}
	return false
}
