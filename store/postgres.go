package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production backend
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates and verifies a pgxpool connection pool, then applies migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_version WHERE version = $1)`, m.version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", m.version, err)
		}
		if exists {
			continue
		}

		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.statements() {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("applying migration %s: %w", m.name, err)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}

	return nil
}

// --- Github users ---

func (s *PostgresStore) UpsertGithubUser(ctx context.Context, u model.GithubUser) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM github_users WHERE user_id = $1 AND id <> $2`, u.UserID, u.ID); err != nil {
			return fmt.Errorf("removing previous github link: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO github_users (id, user_id, login, avatar_url, bio, public_repos, followers, following,
				total_commits, total_additions, total_deletions, active_repositories)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				user_id = EXCLUDED.user_id, login = EXCLUDED.login, avatar_url = EXCLUDED.avatar_url,
				bio = EXCLUDED.bio, public_repos = EXCLUDED.public_repos, followers = EXCLUDED.followers,
				following = EXCLUDED.following, total_commits = EXCLUDED.total_commits,
				total_additions = EXCLUDED.total_additions, total_deletions = EXCLUDED.total_deletions,
				active_repositories = EXCLUDED.active_repositories, updated_at = NOW()`,
			u.ID, u.UserID, u.Login, u.AvatarURL, u.Bio, u.PublicRepos, u.Followers, u.Following,
			u.Contributions.TotalCommits, u.Contributions.TotalAdditions, u.Contributions.TotalDeletions,
			u.Contributions.ActiveRepositories,
		)
		if err != nil {
			return fmt.Errorf("upserting github user %d: %w", u.ID, err)
		}
		return nil
	})
}

func scanPostgresGithubUser(row pgx.Row) (model.GithubUser, error) {
	var u model.GithubUser
	err := row.Scan(&u.ID, &u.UserID, &u.Login, &u.AvatarURL, &u.Bio, &u.PublicRepos, &u.Followers, &u.Following,
		&u.Contributions.TotalCommits, &u.Contributions.TotalAdditions, &u.Contributions.TotalDeletions,
		&u.Contributions.ActiveRepositories, &u.LastSyncedAt, &u.ReposRefreshedAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) GetGithubUserByUserID(ctx context.Context, userID string) (*model.GithubUser, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+githubUserColumns+` FROM github_users WHERE user_id = $1`, userID)
	u, err := scanPostgresGithubUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading github user of %s: %w", userID, err)
	}
	return &u, nil
}

func (s *PostgresStore) ListGithubUsers(ctx context.Context) ([]model.GithubUser, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+githubUserColumns+` FROM github_users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing github users: %w", err)
	}
	defer rows.Close()

	users := make([]model.GithubUser, 0)
	for rows.Next() {
		u, err := scanPostgresGithubUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning github user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) MarkGithubUserSynced(ctx context.Context, githubUserID int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE github_users SET last_synced_at = $1, repos_refreshed_at = $1, updated_at = $1 WHERE id = $2`, at, githubUserID)
	if err != nil {
		return fmt.Errorf("marking github user %d synced: %w", githubUserID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkRepositoriesRefreshed(ctx context.Context, githubUserID int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE github_users SET repos_refreshed_at = $1 WHERE id = $2`, at, githubUserID)
	if err != nil {
		return fmt.Errorf("marking repositories of %d refreshed: %w", githubUserID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Repositories ---

func (s *PostgresStore) UpsertRepository(ctx context.Context, r model.RepositoryRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO github_repositories (id, github_user_id, name, full_name, html_url, description, language,
			languages, topics, stars, forks, is_fork, created_at, updated_at, pushed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			github_user_id = EXCLUDED.github_user_id, name = EXCLUDED.name, full_name = EXCLUDED.full_name,
			html_url = EXCLUDED.html_url, description = EXCLUDED.description, language = EXCLUDED.language,
			languages = EXCLUDED.languages, topics = EXCLUDED.topics, stars = EXCLUDED.stars,
			forks = EXCLUDED.forks, is_fork = EXCLUDED.is_fork, created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at, pushed_at = EXCLUDED.pushed_at`,
		r.ID, r.GithubUserID, r.Name, r.FullName, r.HTMLURL, r.Description, r.Language,
		languagesOrEmpty(r.Languages), nonNil(r.Topics), r.Stars, r.Forks, r.IsFork,
		r.CreatedAt, r.UpdatedAt, r.PushedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting repository %d: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) PruneRepositories(ctx context.Context, githubUserID int64, keep []int64) (int64, error) {
	if keep == nil {
		keep = []int64{}
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM github_repositories WHERE github_user_id = $1 AND id <> ALL($2)`, githubUserID, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning repositories of %d: %w", githubUserID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListRepositories(ctx context.Context, githubUserID int64) ([]model.RepositoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, github_user_id, name, full_name, html_url, description, language, languages, topics,
			stars, forks, is_fork, created_at, updated_at, pushed_at
		FROM github_repositories WHERE github_user_id = $1 ORDER BY id ASC`, githubUserID)
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %d: %w", githubUserID, err)
	}
	defer rows.Close()

	repos := make([]model.RepositoryRecord, 0)
	for rows.Next() {
		var r model.RepositoryRecord
		if err := rows.Scan(&r.ID, &r.GithubUserID, &r.Name, &r.FullName, &r.HTMLURL, &r.Description, &r.Language,
			&r.Languages, &r.Topics, &r.Stars, &r.Forks, &r.IsFork, &r.CreatedAt, &r.UpdatedAt, &r.PushedAt); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// --- Knowledge profiles ---

func (s *PostgresStore) GetKnowledgeProfile(ctx context.Context, userID string) (*model.KnowledgeProfile, error) {
	var (
		p     model.KnowledgeProfile
		level string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, user_id, skills, interests, experience_level, career_goals, learning_goals, created_at, updated_at
		FROM knowledge_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.Skills, &p.Interests, &level, &p.CareerGoals, &p.LearningGoals, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading knowledge profile of %s: %w", userID, err)
	}

	p.ExperienceLevel = model.ExperienceLevel(level)
	p.Skills = nonNil(p.Skills)
	p.Interests = nonNil(p.Interests)
	p.CareerGoals = nonNil(p.CareerGoals)
	p.LearningGoals = nonNil(p.LearningGoals)
	return &p, nil
}

func (s *PostgresStore) SaveKnowledgeProfile(ctx context.Context, p model.KnowledgeProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO knowledge_profiles (id, user_id, skills, interests, experience_level, career_goals, learning_goals, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			skills = EXCLUDED.skills, interests = EXCLUDED.interests, experience_level = EXCLUDED.experience_level,
			career_goals = EXCLUDED.career_goals, learning_goals = EXCLUDED.learning_goals, updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID, nonNil(p.Skills), nonNil(p.Interests), string(p.ExperienceLevel),
		nonNil(p.CareerGoals), nonNil(p.LearningGoals), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving knowledge profile of %s: %w", p.UserID, err)
	}
	return nil
}

// --- Proficiencies ---

func (s *PostgresStore) CreateProficiencyIfAbsent(ctx context.Context, p model.ProficiencyRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO skill_proficiencies (id, user_id, skill_name, category, tier, learning_status,
			related_projects, resources, notes, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, skill_name) DO NOTHING`,
		p.ID, p.UserID, p.SkillName, string(p.Category), string(p.Tier), string(p.LearningStatus),
		projectsOrEmpty(p.RelatedProjects), resourcesOrEmpty(p.Resources), p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("creating proficiency %s/%s: %w", p.UserID, p.SkillName, err)
	}
	return tag.RowsAffected() > 0, nil
}

const postgresProficiencyColumns = `id::text, user_id, skill_name, category, tier, learning_status, related_projects, resources, notes, created_at, updated_at`

func scanPostgresProficiency(row pgx.Row) (model.ProficiencyRecord, error) {
	var (
		p                      model.ProficiencyRecord
		category, tier, status string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.SkillName, &category, &tier, &status,
		&p.RelatedProjects, &p.Resources, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	p.Category = model.SkillCategory(category)
	p.Tier = model.ProficiencyTier(tier)
	p.LearningStatus = model.LearningStatus(status)
	p.RelatedProjects = projectsOrEmpty(p.RelatedProjects)
	p.Resources = resourcesOrEmpty(p.Resources)
	return p, nil
}

func (s *PostgresStore) GetProficiency(ctx context.Context, userID, skill string) (*model.ProficiencyRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresProficiencyColumns+` FROM skill_proficiencies WHERE user_id = $1 AND skill_name = $2`, userID, skill)
	p, err := scanPostgresProficiency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading proficiency %s/%s: %w", userID, skill, err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProficiency(ctx context.Context, p model.ProficiencyRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE skill_proficiencies
		SET tier = $1, learning_status = $2, related_projects = $3, resources = $4, notes = $5, updated_at = $6
		WHERE user_id = $7 AND skill_name = $8`,
		string(p.Tier), string(p.LearningStatus), projectsOrEmpty(p.RelatedProjects), resourcesOrEmpty(p.Resources),
		p.Notes, p.UpdatedAt, p.UserID, p.SkillName,
	)
	if err != nil {
		return fmt.Errorf("updating proficiency %s/%s: %w", p.UserID, p.SkillName, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListProficiencies(ctx context.Context, userID string) ([]model.ProficiencyRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postgresProficiencyColumns+` FROM skill_proficiencies WHERE user_id = $1 ORDER BY skill_name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing proficiencies of %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]model.ProficiencyRecord, 0)
	for rows.Next() {
		p, err := scanPostgresProficiency(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proficiency: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}
