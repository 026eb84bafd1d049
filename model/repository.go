package model

import "time"

// RepositoryRecord is one repository owned (or forked) by a linked github account
type RepositoryRecord struct {
	ID           int64          `json:"id"`
	GithubUserID int64          `json:"githubUserId"`
	Name         string         `json:"name"`
	FullName     string         `json:"fullName"`
	HTMLURL      string         `json:"htmlUrl"`
	Description  *string        `json:"description,omitempty"`
	Language     *string        `json:"language,omitempty"` // primary language, nil for empty repositories
	Languages    map[string]int `json:"languages"`
	Topics       []string       `json:"topics"`
	Stars        int            `json:"stars"`
	Forks        int            `json:"forks"`
	IsFork       bool           `json:"isFork"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	PushedAt     time.Time      `json:"pushedAt"`
}

type GithubRepositoryLanguages struct {
	RepositoryID int64
	Languages    map[string]int
}

// GithubUser is the linked source-control account of an application user
type GithubUser struct {
	ID            int64               `json:"id"`
	UserID        string              `json:"userId"`
	Login         string              `json:"login"`
	AvatarURL     string              `json:"avatarUrl"`
	Bio           string              `json:"bio"`
	PublicRepos   int                 `json:"publicRepos"`
	Followers     int                 `json:"followers"`
	Following     int                 `json:"following"`
	Contributions ContributionSummary `json:"contributions"`

	// LastSyncedAt is only set by full syncs
	LastSyncedAt     *time.Time `json:"lastSyncedAt,omitempty"`
	ReposRefreshedAt *time.Time `json:"reposRefreshedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ContributionSummary aggregates the commit activity of a user across its repositories
type ContributionSummary struct {
	TotalCommits       int `json:"totalCommits"`
	TotalAdditions     int `json:"totalAdditions"`
	TotalDeletions     int `json:"totalDeletions"`
	ActiveRepositories int `json:"activeRepositories"`
}
