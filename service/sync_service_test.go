package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FlorianRuen/skillsync/broker"
	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/store"
	"github.com/google/go-github/v66/github"
	githubMock "github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	svc         syncService
	store       store.Store
	broker      *broker.LocalBroker
	statsCalls  *atomic.Int32
	githubCalls *atomic.Int32
}

func newSyncFixture(t *testing.T) syncFixture {
	t.Helper()

	statsCalls := &atomic.Int32{}
	githubCalls := &atomic.Int32{}

	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				githubCalls.Add(1)
				if r.URL.Path == "/users/ghost" {
					w.WriteHeader(http.StatusNotFound)
					writeJSON(t, w, map[string]string{"message": "Not Found"})
					return
				}
				writeJSON(t, w, github.User{ID: github.Int64(7), Login: github.String("octocat")})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersReposByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, []*github.Repository{
					{
						ID:          github.Int64(1),
						Name:        github.String("api"),
						FullName:    github.String("octocat/api"),
						Language:    github.String("Go"),
						Description: github.String("REST api deployed with Docker"),
						PushedAt:    &github.Timestamp{Time: time.Now().UTC()},
					},
				})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetReposLanguagesByOwnerByRepo,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, map[string]int{"Go": 12000})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetReposStatsContributorsByOwnerByRepo,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				statsCalls.Add(1)
				writeJSON(t, w, []*github.ContributorStats{
					{Author: &github.Contributor{Login: github.String("octocat")}, Total: github.Int(10)},
				})
			}),
		),
	)

	cfg := config.GetDefault()
	cfg.Scheduler.UserDelay = 0
	cfg.Scheduler.IncrementalUserDelay = 0

	st := openTestStore(t)
	b := broker.NewLocalBroker()
	githubService := newTestGithubService(mockedHTTPClient, 1000)
	profileService := NewProfileService(*cfg, st)

	return syncFixture{
		svc:         NewSyncService(*cfg, githubService, profileService, st, b).(syncService),
		store:       st,
		broker:      b,
		statsCalls:  statsCalls,
		githubCalls: githubCalls,
	}
}

func TestSyncUser(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// a repository deleted on github since the last sync
	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 7, UserID: "user-1", Login: "octocat"}))
	require.NoError(t, f.store.UpsertRepository(ctx, model.RepositoryRecord{ID: 99, GithubUserID: 7, Name: "old", FullName: "octocat/old"}))

	result, err := f.svc.SyncUser(ctx, "user-1", "@octocat")
	require.NoError(t, err)

	assert.Equal(t, []string{"docker", "go"}, result.Profile.Skills)
	assert.Equal(t, 1, result.RepositoryCount)

	account, err := f.store.GetGithubUserByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, account.Contributions.TotalCommits)
	assert.Equal(t, 1, account.Contributions.ActiveRepositories)
	require.NotNil(t, account.LastSyncedAt)
	require.NotNil(t, account.ReposRefreshedAt)
	assert.True(t, account.LastSyncedAt.Equal(*account.ReposRefreshedAt))

	repos, err := f.store.ListRepositories(ctx, 7)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, int64(1), repos[0].ID)
	assert.Equal(t, map[string]int{"Go": 12000}, repos[0].Languages)

	// the lock is released once the sync is over
	ok, err := f.broker.TryLock(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSyncUserErrors(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.svc.SyncUser(ctx, "", "octocat")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.SyncUser(ctx, "user-1", "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)

	ok, err := f.broker.TryLock(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.SyncUser(ctx, "user-1", "octocat")
	assert.ErrorIs(t, err, model.ErrSyncInProgress)
}

func TestSyncAllFull(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 7, UserID: "user-1", Login: "octocat"}))
	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 8, UserID: "user-2", Login: "ghost"}))

	report, err := f.svc.SyncAll(ctx, model.BatchFull)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed, "a failing account does not stop the batch")

	// synced within the last day
	report, err = f.svc.SyncAll(ctx, model.BatchFull)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	report, err = f.svc.SyncAll(ctx, model.BatchFull)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 0, report.Skipped)
}

func TestSyncAllIncremental(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	stored := model.ContributionSummary{TotalCommits: 900, ActiveRepositories: 4}
	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 7, UserID: "user-1", Login: "octocat", Contributions: stored}))
	require.NoError(t, f.store.UpsertRepository(ctx, model.RepositoryRecord{
		ID: 1, GithubUserID: 7, Name: "api", FullName: "octocat/api", PushedAt: time.Now().UTC().Add(-time.Hour),
	}))

	report, err := f.svc.SyncAll(ctx, model.BatchIncremental)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, int32(0), f.statsCalls.Load(), "contributions are not reloaded")
	assert.Equal(t, int32(0), f.githubCalls.Load(), "the account is not reloaded")

	account, err := f.store.GetGithubUserByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, stored, account.Contributions)
	assert.Nil(t, account.LastSyncedAt, "a repository refresh is not a full sync")
	require.NotNil(t, account.ReposRefreshedAt)

	profile, err := f.store.GetKnowledgeProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.ExperienceSenior, profile.ExperienceLevel)

	// no push for more than a week
	f.svc.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
	report, err = f.svc.SyncAll(ctx, model.BatchIncremental)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Synced)
	assert.Equal(t, 1, report.Skipped)
}

func TestSyncAllIncrementalSkipsInactiveAccounts(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 7, UserID: "user-1", Login: "octocat"}))
	require.NoError(t, f.store.UpsertRepository(ctx, model.RepositoryRecord{
		ID: 1, GithubUserID: 7, Name: "api", FullName: "octocat/api", PushedAt: time.Now().UTC().Add(-10 * 24 * time.Hour),
	}))
	// linked but never synced, nothing stored to judge activity from
	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 8, UserID: "user-2", Login: "hubot"}))

	report, err := f.svc.SyncAll(ctx, model.BatchIncremental)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Synced)

	account, err := f.store.GetGithubUserByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, account.ReposRefreshedAt)
}

func TestScheduledBatchesKeepFullSyncsRunning(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	start := time.Now().UTC()
	clock := start
	f.svc.now = func() time.Time { return clock }

	_, err := f.svc.SyncUser(ctx, "user-1", "octocat")
	require.NoError(t, err)
	require.Equal(t, int32(1), f.statsCalls.Load())

	// incremental every 6h and full every 24h over three days
	fullSynced, incrementalSynced := 0, 0
	for elapsed := 6 * time.Hour; elapsed <= 72*time.Hour; elapsed += 6 * time.Hour {
		clock = start.Add(elapsed)

		report, err := f.svc.SyncAll(ctx, model.BatchIncremental)
		require.NoError(t, err)
		incrementalSynced += report.Synced

		if elapsed%(24*time.Hour) == 0 {
			report, err := f.svc.SyncAll(ctx, model.BatchFull)
			require.NoError(t, err)
			require.Equal(t, 1, report.Synced, "full sync at %s", elapsed)
			fullSynced += report.Synced
		}
	}

	assert.Equal(t, 3, fullSynced)
	assert.Equal(t, 12, incrementalSynced)
	assert.Equal(t, int32(4), f.statsCalls.Load(), "contributions are reloaded by every full sync")

	account, err := f.store.GetGithubUserByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, account.LastSyncedAt)
	assert.True(t, start.Add(72*time.Hour).Equal(*account.LastSyncedAt))
}

func TestSyncAllUnknownMode(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.svc.SyncAll(context.Background(), model.BatchMode("weekly"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSyncAllStopsOnCancel(t *testing.T) {
	f := newSyncFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.store.UpsertGithubUser(ctx, model.GithubUser{ID: 7, UserID: "user-1", Login: "octocat"}))
	cancel()

	report, err := f.svc.SyncAll(ctx, model.BatchFull)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Synced)
}
