package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FlorianRuen/skillsync/broker"
	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/store"
	log "github.com/sirupsen/logrus"
)

// BatchReport summarizes one SyncAll run
type BatchReport struct {
	Mode     model.BatchMode `json:"mode"`
	Total    int             `json:"total"`
	Synced   int             `json:"synced"`
	Skipped  int             `json:"skipped"`
	Failed   int             `json:"failed"`
	Duration time.Duration   `json:"duration"`
}

type SyncService interface {
	// SyncUser links (or refreshes) the github account of a user and rebuilds its profile
	SyncUser(ctx context.Context, userID, username string) (AnalysisResult, error)
	SyncAll(ctx context.Context, mode model.BatchMode) (BatchReport, error)
}

type syncService struct {
	config   config.Config
	github   GithubService
	profiles ProfileService
	store    store.Store
	broker   broker.Broker
	now      func() time.Time
}

func NewSyncService(config config.Config, githubService GithubService, profileService ProfileService, st store.Store, b broker.Broker) SyncService {
	return syncService{
		config:   config,
		github:   githubService,
		profiles: profileService,
		store:    st,
		broker:   b,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s syncService) SyncUser(ctx context.Context, userID, username string) (AnalysisResult, error) {
	userID = strings.TrimSpace(userID)
	username = model.SyncRequest{Username: username}.Normalize()
	if userID == "" || username == "" {
		return AnalysisResult{}, fmt.Errorf("%w: user id and github username are required", model.ErrInvalidInput)
	}

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return AnalysisResult{}, err
	}
	defer unlock()

	account, err := s.github.FetchUser(ctx, username)
	if err != nil {
		return AnalysisResult{}, err
	}
	account.UserID = userID

	repos, err := s.github.FetchRepositories(ctx, account)
	if err != nil {
		return AnalysisResult{}, err
	}
	account.Contributions = s.github.FetchContributions(ctx, account.Login, repos)

	return s.persist(ctx, account, repos, true)
}

// refreshRepositories re-lists the repositories of a stored account and keeps its contribution summary
func (s syncService) refreshRepositories(ctx context.Context, account model.GithubUser) (AnalysisResult, error) {
	unlock, err := s.lock(ctx, account.UserID)
	if err != nil {
		return AnalysisResult{}, err
	}
	defer unlock()

	repos, err := s.github.FetchRepositories(ctx, account)
	if err != nil {
		return AnalysisResult{}, err
	}

	return s.persist(ctx, account, repos, false)
}

func (s syncService) lock(ctx context.Context, userID string) (func(), error) {
	ok, err := s.broker.TryLock(ctx, userID, s.config.Redis.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, model.ErrSyncInProgress)
	}

	return func() {
		// the caller context may already be cancelled
		if err := s.broker.Unlock(context.WithoutCancel(ctx), userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Warning("unable to release sync lock")
		}
	}, nil
}

// persist stores the account and its repositories, rebuilds the profile and announces it.
// Only a full sync moves last_synced_at, a repository refresh records its own time.
func (s syncService) persist(ctx context.Context, account model.GithubUser, repos []model.RepositoryRecord, full bool) (AnalysisResult, error) {
	if err := s.store.UpsertGithubUser(ctx, account); err != nil {
		return AnalysisResult{}, fmt.Errorf("storing github account %s: %w", account.Login, err)
	}

	keep := make([]int64, 0, len(repos))
	for _, r := range repos {
		if err := s.store.UpsertRepository(ctx, r); err != nil {
			return AnalysisResult{}, fmt.Errorf("storing repository %s: %w", r.FullName, err)
		}
		keep = append(keep, r.ID)
	}

	pruned, err := s.store.PruneRepositories(ctx, account.ID, keep)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("pruning repositories of %s: %w", account.Login, err)
	}

	result, err := s.profiles.AnalyzeAndStore(ctx, account.UserID, repos, account.Contributions)
	if err != nil {
		return AnalysisResult{}, err
	}

	now := s.now()
	mark := s.store.MarkRepositoriesRefreshed
	if full {
		mark = s.store.MarkGithubUserSynced
	}
	if err := mark(ctx, account.ID, now); err != nil {
		return AnalysisResult{}, fmt.Errorf("marking %s synced: %w", account.Login, err)
	}

	event := model.ProfileUpdatedEvent{
		Type:            broker.ProfileUpdatedType,
		UserID:          account.UserID,
		ExperienceLevel: result.Profile.ExperienceLevel,
		SkillCount:      len(result.Profile.Skills),
		NewSkills:       result.NewSkills,
		At:              now,
	}
	if err := s.broker.PublishProfileUpdated(ctx, event); err != nil {
		log.WithError(err).WithField("user_id", account.UserID).Warning("unable to publish profile update")
	}

	log.WithFields(log.Fields{
		"user_id":      account.UserID,
		"login":        account.Login,
		"repositories": len(repos),
		"pruned":       pruned,
		"full":         full,
	}).Info("github account synchronized")

	return result, nil
}

// SyncAll walks every linked account one after the other.
// Full runs skip accounts synced within FullSyncInterval, incremental runs only
// refresh repositories of accounts that pushed within IncrementalActiveWindow.
// A failing account is logged and the batch moves on
func (s syncService) SyncAll(ctx context.Context, mode model.BatchMode) (BatchReport, error) {
	var delay time.Duration
	switch mode {
	case model.BatchFull:
		delay = s.config.Scheduler.UserDelay
	case model.BatchIncremental:
		delay = s.config.Scheduler.IncrementalUserDelay
	default:
		return BatchReport{}, fmt.Errorf("%w: unknown batch mode %q", model.ErrInvalidInput, mode)
	}

	start := s.now()
	report := BatchReport{Mode: mode}

	accounts, err := s.store.ListGithubUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("listing github accounts: %w", err)
	}
	report.Total = len(accounts)

	log.WithFields(log.Fields{
		"mode":     mode,
		"accounts": len(accounts),
	}).Info("batch synchronization started")

	processed := 0
	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}

		due, err := s.due(ctx, mode, account, start)
		if err != nil {
			report.Failed++
			log.WithError(err).WithField("user_id", account.UserID).Error("unable to check github account activity")
			continue
		}
		if !due {
			report.Skipped++
			continue
		}

		if processed > 0 && !sleepContext(ctx, delay) {
			break
		}
		processed++

		if mode == model.BatchFull {
			_, err = s.SyncUser(ctx, account.UserID, account.Login)
		} else {
			_, err = s.refreshRepositories(ctx, account)
		}

		if err != nil {
			report.Failed++
			log.WithError(err).WithFields(log.Fields{
				"mode":    mode,
				"user_id": account.UserID,
				"login":   account.Login,
			}).Error("unable to synchronize github account")
			continue
		}
		report.Synced++
	}

	report.Duration = s.now().Sub(start)

	log.WithFields(log.Fields{
		"mode":     mode,
		"synced":   report.Synced,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"duration": report.Duration,
	}).Info("batch synchronization finished")

	return report, ctx.Err()
}

func (s syncService) due(ctx context.Context, mode model.BatchMode, account model.GithubUser, now time.Time) (bool, error) {
	if mode == model.BatchFull {
		return account.LastSyncedAt == nil || now.Sub(*account.LastSyncedAt) >= s.config.Scheduler.FullSyncInterval, nil
	}

	pushedAt, err := s.lastPushedAt(ctx, account)
	if err != nil {
		return false, err
	}
	return !pushedAt.IsZero() && now.Sub(pushedAt) <= s.config.Scheduler.IncrementalActiveWindow, nil
}

// lastPushedAt is the newest push over the stored repositories of an account,
// zero when none is stored yet
func (s syncService) lastPushedAt(ctx context.Context, account model.GithubUser) (time.Time, error) {
	repos, err := s.store.ListRepositories(ctx, account.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("listing repositories of %s: %w", account.Login, err)
	}

	var latest time.Time
	for _, r := range repos {
		if r.PushedAt.After(latest) {
			latest = r.PushedAt
		}
	}
	return latest, nil
}

// sleepContext returns false when ctx is done before d elapsed
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
