package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FlorianRuen/skillsync/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps everything in a single SQLite file, used for local runs and tests
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) skillsync.db in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "skillsync.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// a single connection keeps :memory: databases alive and avoids "database is locked"
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("running %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", m.version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", m.version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", m.version, err)
		}

		for _, stmt := range m.statements() {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("applying migration %s: %w", m.name, err)
			}
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *SQLiteStore) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(column, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// --- Github users ---

func (s *SQLiteStore) UpsertGithubUser(ctx context.Context, u model.GithubUser) error {
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning github user upsert: %w", err)
	}
	defer tx.Rollback()

	// an application user relinking another account replaces the previous link
	if _, err := tx.ExecContext(ctx, `DELETE FROM github_users WHERE user_id = ? AND id <> ?`, u.UserID, u.ID); err != nil {
		return fmt.Errorf("removing previous github link: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO github_users (id, user_id, login, avatar_url, bio, public_repos, followers, following,
			total_commits, total_additions, total_deletions, active_repositories, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id, login = excluded.login, avatar_url = excluded.avatar_url,
			bio = excluded.bio, public_repos = excluded.public_repos, followers = excluded.followers,
			following = excluded.following, total_commits = excluded.total_commits,
			total_additions = excluded.total_additions, total_deletions = excluded.total_deletions,
			active_repositories = excluded.active_repositories, updated_at = excluded.updated_at`,
		u.ID, u.UserID, u.Login, u.AvatarURL, u.Bio, u.PublicRepos, u.Followers, u.Following,
		u.Contributions.TotalCommits, u.Contributions.TotalAdditions, u.Contributions.TotalDeletions,
		u.Contributions.ActiveRepositories, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting github user %d: %w", u.ID, err)
	}

	return tx.Commit()
}

const githubUserColumns = `id, user_id, login, avatar_url, bio, public_repos, followers, following,
	total_commits, total_additions, total_deletions, active_repositories, last_synced_at, repos_refreshed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGithubUser(row rowScanner) (model.GithubUser, error) {
	var (
		u                          model.GithubUser
		lastSynced, reposRefreshed sql.NullString
		createdAt, updatedAt       string
	)
	err := row.Scan(&u.ID, &u.UserID, &u.Login, &u.AvatarURL, &u.Bio, &u.PublicRepos, &u.Followers, &u.Following,
		&u.Contributions.TotalCommits, &u.Contributions.TotalAdditions, &u.Contributions.TotalDeletions,
		&u.Contributions.ActiveRepositories, &lastSynced, &reposRefreshed, &createdAt, &updatedAt)
	if err != nil {
		return u, err
	}

	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return u, err
	}
	if u.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return u, err
	}
	if lastSynced.Valid {
		t, err := parseTime("last_synced_at", lastSynced.String)
		if err != nil {
			return u, err
		}
		u.LastSyncedAt = &t
	}
	if reposRefreshed.Valid {
		t, err := parseTime("repos_refreshed_at", reposRefreshed.String)
		if err != nil {
			return u, err
		}
		u.ReposRefreshedAt = &t
	}
	return u, nil
}

func (s *SQLiteStore) GetGithubUserByUserID(ctx context.Context, userID string) (*model.GithubUser, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+githubUserColumns+` FROM github_users WHERE user_id = ?`, userID)
	u, err := scanSQLiteGithubUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading github user of %s: %w", userID, err)
	}
	return &u, nil
}

func (s *SQLiteStore) ListGithubUsers(ctx context.Context) ([]model.GithubUser, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+githubUserColumns+` FROM github_users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing github users: %w", err)
	}
	defer rows.Close()

	users := make([]model.GithubUser, 0)
	for rows.Next() {
		u, err := scanSQLiteGithubUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning github user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) MarkGithubUserSynced(ctx context.Context, githubUserID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE github_users SET last_synced_at = ?, repos_refreshed_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(at), formatTime(at), githubUserID)
	if err != nil {
		return fmt.Errorf("marking github user %d synced: %w", githubUserID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) MarkRepositoriesRefreshed(ctx context.Context, githubUserID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE github_users SET repos_refreshed_at = ? WHERE id = ?`, formatTime(at), githubUserID)
	if err != nil {
		return fmt.Errorf("marking repositories of %d refreshed: %w", githubUserID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Repositories ---

func (s *SQLiteStore) UpsertRepository(ctx context.Context, r model.RepositoryRecord) error {
	languages, err := encodeJSON(languagesOrEmpty(r.Languages))
	if err != nil {
		return err
	}
	topics, err := encodeJSON(nonNil(r.Topics))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO github_repositories (id, github_user_id, name, full_name, html_url, description, language,
			languages, topics, stars, forks, is_fork, created_at, updated_at, pushed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			github_user_id = excluded.github_user_id, name = excluded.name, full_name = excluded.full_name,
			html_url = excluded.html_url, description = excluded.description, language = excluded.language,
			languages = excluded.languages, topics = excluded.topics, stars = excluded.stars,
			forks = excluded.forks, is_fork = excluded.is_fork, created_at = excluded.created_at,
			updated_at = excluded.updated_at, pushed_at = excluded.pushed_at`,
		r.ID, r.GithubUserID, r.Name, r.FullName, r.HTMLURL, r.Description, r.Language,
		languages, topics, r.Stars, r.Forks, r.IsFork,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt), formatTime(r.PushedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting repository %d: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) PruneRepositories(ctx context.Context, githubUserID int64, keep []int64) (int64, error) {
	query := `DELETE FROM github_repositories WHERE github_user_id = ?`
	args := []any{githubUserID}

	if len(keep) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pruning repositories of %d: %w", githubUserID, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ListRepositories(ctx context.Context, githubUserID int64) ([]model.RepositoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, github_user_id, name, full_name, html_url, description, language, languages, topics,
			stars, forks, is_fork, created_at, updated_at, pushed_at
		FROM github_repositories WHERE github_user_id = ? ORDER BY id ASC`, githubUserID)
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %d: %w", githubUserID, err)
	}
	defer rows.Close()

	repos := make([]model.RepositoryRecord, 0)
	for rows.Next() {
		var (
			r                              model.RepositoryRecord
			description, language          sql.NullString
			languages, topics              string
			createdAt, updatedAt, pushedAt string
		)
		if err := rows.Scan(&r.ID, &r.GithubUserID, &r.Name, &r.FullName, &r.HTMLURL, &description, &language,
			&languages, &topics, &r.Stars, &r.Forks, &r.IsFork, &createdAt, &updatedAt, &pushedAt); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}

		if description.Valid {
			r.Description = &description.String
		}
		if language.Valid {
			r.Language = &language.String
		}
		if err := decodeJSON(languages, &r.Languages); err != nil {
			return nil, err
		}
		if err := decodeJSON(topics, &r.Topics); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		if r.PushedAt, err = parseTime("pushed_at", pushedAt); err != nil {
			return nil, err
		}

		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// --- Knowledge profiles ---

func (s *SQLiteStore) GetKnowledgeProfile(ctx context.Context, userID string) (*model.KnowledgeProfile, error) {
	var (
		p                                             model.KnowledgeProfile
		skills, interests, careerGoals, learningGoals string
		level, createdAt, updatedAt                   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, skills, interests, experience_level, career_goals, learning_goals, created_at, updated_at
		FROM knowledge_profiles WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &skills, &interests, &level, &careerGoals, &learningGoals, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading knowledge profile of %s: %w", userID, err)
	}

	p.ExperienceLevel = model.ExperienceLevel(level)
	for _, col := range []struct {
		raw    string
		target *[]string
	}{
		{skills, &p.Skills},
		{interests, &p.Interests},
		{careerGoals, &p.CareerGoals},
		{learningGoals, &p.LearningGoals},
	} {
		if err := decodeJSON(col.raw, col.target); err != nil {
			return nil, err
		}
		*col.target = nonNil(*col.target)
	}

	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) SaveKnowledgeProfile(ctx context.Context, p model.KnowledgeProfile) error {
	encoded := make([]string, 0, 4)
	for _, list := range [][]string{p.Skills, p.Interests, p.CareerGoals, p.LearningGoals} {
		raw, err := encodeJSON(nonNil(list))
		if err != nil {
			return err
		}
		encoded = append(encoded, raw)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_profiles (id, user_id, skills, interests, experience_level, career_goals, learning_goals, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			skills = excluded.skills, interests = excluded.interests, experience_level = excluded.experience_level,
			career_goals = excluded.career_goals, learning_goals = excluded.learning_goals, updated_at = excluded.updated_at`,
		p.ID, p.UserID, encoded[0], encoded[1], string(p.ExperienceLevel), encoded[2], encoded[3],
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving knowledge profile of %s: %w", p.UserID, err)
	}
	return nil
}

// --- Proficiencies ---

func (s *SQLiteStore) CreateProficiencyIfAbsent(ctx context.Context, p model.ProficiencyRecord) (bool, error) {
	projects, err := encodeJSON(projectsOrEmpty(p.RelatedProjects))
	if err != nil {
		return false, err
	}
	resources, err := encodeJSON(resourcesOrEmpty(p.Resources))
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO skill_proficiencies (id, user_id, skill_name, category, tier, learning_status,
			related_projects, resources, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, skill_name) DO NOTHING`,
		p.ID, p.UserID, p.SkillName, string(p.Category), string(p.Tier), string(p.LearningStatus),
		projects, resources, p.Notes, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("creating proficiency %s/%s: %w", p.UserID, p.SkillName, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const proficiencyColumns = `id, user_id, skill_name, category, tier, learning_status, related_projects, resources, notes, created_at, updated_at`

func scanSQLiteProficiency(row rowScanner) (model.ProficiencyRecord, error) {
	var (
		p                                       model.ProficiencyRecord
		category, tier, status                  string
		projects, resources, createdAt, updated string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.SkillName, &category, &tier, &status,
		&projects, &resources, &p.Notes, &createdAt, &updated); err != nil {
		return p, err
	}

	p.Category = model.SkillCategory(category)
	p.Tier = model.ProficiencyTier(tier)
	p.LearningStatus = model.LearningStatus(status)

	if err := decodeJSON(projects, &p.RelatedProjects); err != nil {
		return p, err
	}
	if err := decodeJSON(resources, &p.Resources); err != nil {
		return p, err
	}
	p.RelatedProjects = projectsOrEmpty(p.RelatedProjects)
	p.Resources = resourcesOrEmpty(p.Resources)

	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return p, err
	}
	return p, nil
}

func (s *SQLiteStore) GetProficiency(ctx context.Context, userID, skill string) (*model.ProficiencyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proficiencyColumns+` FROM skill_proficiencies WHERE user_id = ? AND skill_name = ?`, userID, skill)
	p, err := scanSQLiteProficiency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading proficiency %s/%s: %w", userID, skill, err)
	}
	return &p, nil
}

func (s *SQLiteStore) UpdateProficiency(ctx context.Context, p model.ProficiencyRecord) error {
	projects, err := encodeJSON(projectsOrEmpty(p.RelatedProjects))
	if err != nil {
		return err
	}
	resources, err := encodeJSON(resourcesOrEmpty(p.Resources))
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE skill_proficiencies
		SET tier = ?, learning_status = ?, related_projects = ?, resources = ?, notes = ?, updated_at = ?
		WHERE user_id = ? AND skill_name = ?`,
		string(p.Tier), string(p.LearningStatus), projects, resources, p.Notes, formatTime(p.UpdatedAt),
		p.UserID, p.SkillName,
	)
	if err != nil {
		return fmt.Errorf("updating proficiency %s/%s: %w", p.UserID, p.SkillName, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListProficiencies(ctx context.Context, userID string) ([]model.ProficiencyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+proficiencyColumns+` FROM skill_proficiencies WHERE user_id = ? ORDER BY skill_name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing proficiencies of %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]model.ProficiencyRecord, 0)
	for rows.Next() {
		p, err := scanSQLiteProficiency(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proficiency: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func languagesOrEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func projectsOrEmpty(p []model.ProjectReference) []model.ProjectReference {
	if p == nil {
		return []model.ProjectReference{}
	}
	return p
}

func resourcesOrEmpty(r []model.LearningResource) []model.LearningResource {
	if r == nil {
		return []model.LearningResource{}
	}
	return r
}
