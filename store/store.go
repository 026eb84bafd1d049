// Package store persists linked github accounts, their repositories, knowledge
// profiles and skill proficiencies. Two backends implement Store: PostgreSQL
// through pgx and SQLite through modernc.org/sqlite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = model.ErrNotFound

type Store interface {
	// UpsertGithubUser inserts or refreshes a linked account, keyed by provider id
	UpsertGithubUser(ctx context.Context, u model.GithubUser) error
	GetGithubUserByUserID(ctx context.Context, userID string) (*model.GithubUser, error)
	ListGithubUsers(ctx context.Context) ([]model.GithubUser, error)
	// MarkGithubUserSynced records a full sync, which also refreshes the repositories
	MarkGithubUserSynced(ctx context.Context, githubUserID int64, at time.Time) error
	// MarkRepositoriesRefreshed records a repository-only refresh and leaves last_synced_at untouched
	MarkRepositoriesRefreshed(ctx context.Context, githubUserID int64, at time.Time) error

	// UpsertRepository inserts or replaces a repository, keyed by provider id
	UpsertRepository(ctx context.Context, r model.RepositoryRecord) error
	// PruneRepositories deletes the repositories of a user that are not in keep
	PruneRepositories(ctx context.Context, githubUserID int64, keep []int64) (int64, error)
	ListRepositories(ctx context.Context, githubUserID int64) ([]model.RepositoryRecord, error)

	GetKnowledgeProfile(ctx context.Context, userID string) (*model.KnowledgeProfile, error)
	// SaveKnowledgeProfile inserts or overwrites the profile of p.UserID
	SaveKnowledgeProfile(ctx context.Context, p model.KnowledgeProfile) error

	// CreateProficiencyIfAbsent returns false when a record already exists for (user, skill)
	CreateProficiencyIfAbsent(ctx context.Context, p model.ProficiencyRecord) (bool, error)
	GetProficiency(ctx context.Context, userID, skill string) (*model.ProficiencyRecord, error)
	UpdateProficiency(ctx context.Context, p model.ProficiencyRecord) error
	ListProficiencies(ctx context.Context, userID string) ([]model.ProficiencyRecord, error)

	Close() error
}

// Open builds the store selected by the configuration
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.URL)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
