// Package skills turns repository metadata into a skill profile: keyword
// extraction, aggregation, categorization, experience and proficiency scoring,
// and goal suggestions. Every function in this package is pure.
package skills

import "regexp"

type keywordPattern struct {
	skill   string
	pattern *regexp.Regexp
}

func kw(skill, expr string) keywordPattern {
	return keywordPattern{skill: skill, pattern: regexp.MustCompile(`(?i)` + expr)}
}

// lexicon is matched in order, its order is the order of ExtractKeywords results
var lexicon = []keywordPattern{
	// web frameworks
	kw("react", `\breact\b`),
	kw("react-native", `\breact[ -]native\b`),
	kw("vue", `\bvue(\.?js)?\b`),
	kw("angular", `\bangular(js)?\b`),
	kw("svelte", `\bsvelte(kit)?\b`),
	kw("nextjs", `\bnext\.?js\b`),
	kw("nodejs", `\bnode(\.?js)?\b`),
	kw("express", `\bexpress(\.?js)?\b`),
	kw("django", `\bdjango\b`),
	kw("flask", `\bflask\b`),
	kw("fastapi", `\bfastapi\b`),
	kw("spring", `\bspring(boot| boot)?\b`),
	kw("rails", `\b(ruby on )?rails\b`),
	kw("laravel", `\blaravel\b`),

	// languages
	kw("javascript", `\bjavascript\b`),
	kw("typescript", `\btypescript\b`),
	kw("python", `\bpython\b`),
	kw("java", `\bjava\b`),
	kw("go", `\bgolang\b`),
	kw("rust", `\brust\b`),

	// databases
	kw("postgresql", `\bpostgres(ql)?\b`),
	kw("mysql", `\bmysql\b`),
	kw("mongodb", `\bmongo(db)?\b`),
	kw("redis", `\bredis\b`),
	kw("supabase", `\bsupabase\b`),
	kw("firebase", `\bfirebase\b`),

	// cloud and containers
	kw("docker", `\bdocker\b`),
	kw("kubernetes", `\b(kubernetes|k8s)\b`),
	kw("aws", `\b(aws|amazon web services)\b`),
	kw("azure", `\bazure\b`),
	kw("gcp", `\b(gcp|google cloud)\b`),

	// mobile
	kw("flutter", `\bflutter\b`),
	kw("swift", `\bswift(ui)?\b`),
	kw("kotlin", `\bkotlin\b`),

	// data science
	kw("machine-learning", `\b(machine learning|ml)\b`),
	kw("tensorflow", `\btensorflow\b`),
	kw("pytorch", `\bpytorch\b`),
	kw("pandas", `\bpandas\b`),
}

// ExtractKeywords returns the distinct lexicon skills found in text
func ExtractKeywords(text string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}

	for _, k := range lexicon {
		if k.pattern.MatchString(text) {
			found = append(found, k.skill)
		}
	}

	return found
}
