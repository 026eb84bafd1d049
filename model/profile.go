package model

import (
	"fmt"
	"time"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceJunior       ExperienceLevel = "junior"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceSenior       ExperienceLevel = "senior"
)

type ProficiencyTier string

const (
	TierNovice       ProficiencyTier = "novice"
	TierBeginner     ProficiencyTier = "beginner"
	TierIntermediate ProficiencyTier = "intermediate"
	TierAdvanced     ProficiencyTier = "advanced"
)

// Rank orders tiers from novice (0) to advanced (3), -1 for unknown values
func (t ProficiencyTier) Rank() int {
	switch t {
	case TierNovice:
		return 0
	case TierBeginner:
		return 1
	case TierIntermediate:
		return 2
	case TierAdvanced:
		return 3
	default:
		return -1
	}
}

// ParseProficiencyTier
func ParseProficiencyTier(s string) (ProficiencyTier, error) {
	t := ProficiencyTier(s)
	if t.Rank() < 0 {
		return "", fmt.Errorf("%w: unknown proficiency tier %q", ErrInvalidInput, s)
	}
	return t, nil
}

type LearningStatus string

const (
	StatusNotStarted LearningStatus = "not_started"
	StatusLearning   LearningStatus = "learning"
	StatusPracticing LearningStatus = "practicing"
	StatusMastered   LearningStatus = "mastered"
)

// ParseLearningStatus
func ParseLearningStatus(s string) (LearningStatus, error) {
	switch st := LearningStatus(s); st {
	case StatusNotStarted, StatusLearning, StatusPracticing, StatusMastered:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown learning status %q", ErrInvalidInput, s)
	}
}

// StatusForTier gives the initial learning status of a freshly discovered skill
func StatusForTier(t ProficiencyTier) LearningStatus {
	switch t {
	case TierAdvanced:
		return StatusMastered
	case TierIntermediate:
		return StatusPracticing
	case TierBeginner:
		return StatusLearning
	default:
		return StatusNotStarted
	}
}

type SkillCategory string

const (
	CategoryProgramming SkillCategory = "programming"
	CategoryFrameworks  SkillCategory = "frameworks"
	CategoryDatabases   SkillCategory = "databases"
	CategoryTools       SkillCategory = "tools"
	CategoryCloud       SkillCategory = "cloud"
)

// KnowledgeProfile is the per-user aggregate consumed by roadmap generation
type KnowledgeProfile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Skills          []string        `json:"skills"`
	Interests       []string        `json:"interests"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	CareerGoals     []string        `json:"careerGoals"`
	LearningGoals   []string        `json:"learningGoals"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ProjectReference struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Stars int    `json:"stars"`
}

type LearningResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Kind  string `json:"kind"` // docs | course | practice
}

// ProficiencyRecord, at most one per (UserID, SkillName)
type ProficiencyRecord struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	SkillName       string             `json:"skillName"`
	Category        SkillCategory      `json:"category"`
	Tier            ProficiencyTier    `json:"tier"`
	LearningStatus  LearningStatus     `json:"learningStatus"`
	RelatedProjects []ProjectReference `json:"relatedProjects"`
	Resources       []LearningResource `json:"resources"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// ProfileUpdatedEvent is published once a profile has been written
type ProfileUpdatedEvent struct {
	Type            string          `json:"type"`
	UserID          string          `json:"userId"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	SkillCount      int             `json:"skillCount"`
	NewSkills       []string        `json:"newSkills"`
	At              time.Time       `json:"at"`
}
