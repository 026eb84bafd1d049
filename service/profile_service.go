package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/skills"
	"github.com/FlorianRuen/skillsync/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// AnalysisResult is returned to the caller of a sync
type AnalysisResult struct {
	Profile              model.KnowledgeProfile   `json:"profile"`
	Categories           skills.CategorizedSkills `json:"categories"`
	ExperienceScore      float64                  `json:"experienceScore"`
	RepositoryCount      int                      `json:"repositoryCount"`
	NewSkills            []string                 `json:"newSkills"`
	ProficienciesCreated int                      `json:"proficienciesCreated"`
}

type ProfileService interface {
	AnalyzeAndStore(ctx context.Context, userID string, repos []model.RepositoryRecord, contributions model.ContributionSummary) (AnalysisResult, error)
	UpdateProficiency(ctx context.Context, userID, skill string, req model.UpdateProficiencyRequest) (*model.ProficiencyRecord, error)
	GetProfile(ctx context.Context, userID string) (*model.KnowledgeProfile, error)
	ListProficiencies(ctx context.Context, userID string) ([]model.ProficiencyRecord, error)
}

type profileService struct {
	store  store.Store
	config config.Config
	now    func() time.Time
}

func NewProfileService(config config.Config, st store.Store) ProfileService {
	return profileService{
		store:  st,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AnalyzeAndStore runs the skill pipeline over the repositories and persists the result.
// Skills accumulate across runs. Interests, goals and experience level reflect the latest
// run unless Profile.UnionInterests is set, in which case interests and goals accumulate too
func (s profileService) AnalyzeAndStore(ctx context.Context, userID string, repos []model.RepositoryRecord, contributions model.ContributionSummary) (AnalysisResult, error) {
	analysis := skills.Analyze(repos, contributions)
	now := s.now()

	existing, err := s.store.GetKnowledgeProfile(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return AnalysisResult{}, fmt.Errorf("loading profile of %s: %w", userID, err)
	}

	var profile model.KnowledgeProfile
	newSkills := make([]string, 0)

	if existing == nil {
		newSkills = analysis.Skills.Sorted()
		profile = model.KnowledgeProfile{
			ID:              uuid.NewString(),
			UserID:          userID,
			Skills:          newSkills,
			Interests:       analysis.Interests,
			ExperienceLevel: analysis.ExperienceLevel,
			CareerGoals:     analysis.CareerGoals,
			LearningGoals:   analysis.LearningGoals,
			CreatedAt:       now,
		}
	} else {
		merged := skills.NewSkillSet(existing.Skills...)
		for _, skill := range analysis.Skills.Sorted() {
			if !merged.Has(skill) {
				newSkills = append(newSkills, skill)
			}
			merged.Add(skill)
		}

		profile = *existing
		profile.Skills = merged.Sorted()
		profile.ExperienceLevel = analysis.ExperienceLevel

		if s.config.Profile.UnionInterests {
			profile.Interests = unionOrdered(existing.Interests, analysis.Interests)
			profile.CareerGoals = unionOrdered(existing.CareerGoals, analysis.CareerGoals)
			profile.LearningGoals = unionOrdered(existing.LearningGoals, analysis.LearningGoals)
		} else {
			profile.Interests = analysis.Interests
			profile.CareerGoals = analysis.CareerGoals
			profile.LearningGoals = analysis.LearningGoals
		}
	}
	profile.UpdatedAt = now

	if err := s.store.SaveKnowledgeProfile(ctx, profile); err != nil {
		return AnalysisResult{}, fmt.Errorf("saving profile of %s: %w", userID, err)
	}

	created := 0
	for _, skill := range analysis.Skills.Sorted() {
		category := skills.CategoryOf(skill)
		estimate := skills.EstimateProficiency(skill, repos)

		ok, err := s.store.CreateProficiencyIfAbsent(ctx, model.ProficiencyRecord{
			ID:              uuid.NewString(),
			UserID:          userID,
			SkillName:       skill,
			Category:        category,
			Tier:            estimate.Tier,
			LearningStatus:  model.StatusForTier(estimate.Tier),
			RelatedProjects: estimate.Projects,
			Resources:       skills.SuggestResources(skill, category),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("creating proficiency of %s: %w", userID, err)
		}
		if ok {
			created++
		}
	}

	log.WithFields(log.Fields{
		"user_id":                userID,
		"skills":                 len(profile.Skills),
		"new_skills":             len(newSkills),
		"proficiencies_created":  created,
		"experience_level":       profile.ExperienceLevel,
		"experience_score":       analysis.ExperienceScore,
		"number_of_repositories": len(repos),
	}).Info("knowledge profile stored")

	return AnalysisResult{
		Profile:              profile,
		Categories:           analysis.Categories,
		ExperienceScore:      analysis.ExperienceScore,
		RepositoryCount:      len(repos),
		NewSkills:            newSkills,
		ProficienciesCreated: created,
	}, nil
}

func (s profileService) UpdateProficiency(ctx context.Context, userID, skill string, req model.UpdateProficiencyRequest) (*model.ProficiencyRecord, error) {
	if req.Tier == nil && req.LearningStatus == nil && req.Notes == nil {
		return nil, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}

	record, err := s.store.GetProficiency(ctx, userID, skills.Normalize(skill))
	if err != nil {
		return nil, err
	}

	if req.Tier != nil {
		tier, err := model.ParseProficiencyTier(*req.Tier)
		if err != nil {
			return nil, err
		}
		record.Tier = tier
	}

	if req.LearningStatus != nil {
		status, err := model.ParseLearningStatus(*req.LearningStatus)
		if err != nil {
			return nil, err
		}
		record.LearningStatus = status
	}

	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	record.UpdatedAt = s.now()
	if err := s.store.UpdateProficiency(ctx, *record); err != nil {
		return nil, err
	}

	return record, nil
}

func (s profileService) GetProfile(ctx context.Context, userID string) (*model.KnowledgeProfile, error) {
	return s.store.GetKnowledgeProfile(ctx, userID)
}

func (s profileService) ListProficiencies(ctx context.Context, userID string) ([]model.ProficiencyRecord, error) {
	return s.store.ListProficiencies(ctx, userID)
}

// unionOrdered keeps the order of base and appends the unseen values of extra
func unionOrdered(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))

	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
