package skills

import (
	"sort"
	"strings"

	"github.com/FlorianRuen/skillsync/model"
)

// SkillSet is a set of lowercase skill names
type SkillSet map[string]struct{}

func NewSkillSet(names ...string) SkillSet {
	s := make(SkillSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add normalizes name and inserts it, blank names are ignored
func (s SkillSet) Add(name string) {
	n := Normalize(name)
	if n == "" {
		return
	}
	s[n] = struct{}{}
}

func (s SkillSet) Has(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}

// Sorted returns the skills in lexical order
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Normalize lowercases and trims a skill name
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Aggregate unions languages, topics and description keywords of all repositories
func Aggregate(repos []model.RepositoryRecord) SkillSet {
	set := make(SkillSet)

	for _, r := range repos {
		for lang := range r.Languages {
			set.Add(lang)
		}

		for _, topic := range r.Topics {
			set.Add(topic)
		}

		if r.Description != nil {
			for _, k := range ExtractKeywords(*r.Description) {
				set.Add(k)
			}
		}
	}

	return set
}
