package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

type GithubService interface {
	FetchUser(ctx context.Context, username string) (model.GithubUser, error)
	FetchRepositories(ctx context.Context, account model.GithubUser) ([]model.RepositoryRecord, error)
	GetRepositoriesLanguages(ctx context.Context, repos []model.RepositoryRecord) ([]model.RepositoryRecord, error)
	FetchLanguagesForSingleRepository(ctx context.Context, r model.RepositoryRecord, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error
	FetchContributions(ctx context.Context, login string, repos []model.RepositoryRecord) model.ContributionSummary

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// every call made by this service consumes one token of the limiter
// the limiter is seeded from the core rate limit reported by github (60/h anonymous, 5000/h with a token)
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

// NewGithubRateLimiter builds a local limiter mirroring the current github core rate limit.
// Requests already consumed elsewhere are taken from the bucket so both stay in sync
func NewGithubRateLimiter(ctx context.Context, githubClient *github.Client) (*rate.Limiter, error) {
	rateLimits, _, err := githubClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading github rate limits: %w", err)
	}

	core := rateLimits.GetCore()
	log.WithFields(log.Fields{
		"totalAvailable":    core.Limit,
		"remainingRequests": core.Remaining,
	}).Debug("will setup local rate limiter with rate limits infos from github")

	rateLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(max(core.Limit, 1))), core.Limit)
	if !rateLimiter.AllowN(time.Now(), core.Limit-core.Remaining) {
		return nil, fmt.Errorf("unable to configure the github rate limiter: %w", model.ErrRateLimiter)
	}

	return rateLimiter, nil
}

func (s githubService) FetchUser(ctx context.Context, username string) (model.GithubUser, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return model.GithubUser{}, model.ErrRateLimitReached
	}

	log.WithField("username", username).Info("fetch github account")

	u, _, err := s.githubClient.Users.Get(ctx, username)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return model.GithubUser{}, fmt.Errorf("github account %q: %w", username, model.ErrNotFound)
		}
		return model.GithubUser{}, s.HandleRequestErrors(err)
	}

	if u == nil || u.ID == nil || u.Login == nil {
		return model.GithubUser{}, model.ErrInvalidData
	}

	return model.GithubUser{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		AvatarURL:   u.GetAvatarURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
	}, nil
}

// FetchRepositories lists every repository owned by the account, page by page, then loads their languages
func (s githubService) FetchRepositories(ctx context.Context, account model.GithubUser) ([]model.RepositoryRecord, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:      "owner",
		Sort:      "pushed",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: s.config.Github.PerPage,
		},
	}

	repositories := make([]model.RepositoryRecord, 0)

	for {
		if !s.githubRateLimiter.Allow() {
			log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
			return []model.RepositoryRecord{}, model.ErrRateLimitReached
		}

		page, resp, err := s.githubClient.Repositories.ListByUser(ctx, account.Login, opts)
		if err != nil {
			return []model.RepositoryRecord{}, s.HandleRequestErrors(err)
		}

		for _, r := range page {
			if r == nil || r.ID == nil || r.Name == nil || r.FullName == nil {
				log.WithField("login", account.Login).Debug("repository found with invalid information")
				return []model.RepositoryRecord{}, model.ErrInvalidData
			}

			repositories = append(repositories, model.RepositoryRecord{
				ID:           r.GetID(),
				GithubUserID: account.ID,
				Name:         r.GetName(),
				FullName:     r.GetFullName(),
				HTMLURL:      r.GetHTMLURL(),
				Description:  r.Description,
				Language:     r.Language,
				Topics:       append([]string{}, r.Topics...),
				Stars:        r.GetStargazersCount(),
				Forks:        r.GetForksCount(),
				IsFork:       r.GetFork(),
				CreatedAt:    r.GetCreatedAt().Time,
				UpdatedAt:    r.GetUpdatedAt().Time,
				PushedAt:     r.GetPushedAt().Time,
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.WithFields(log.Fields{
		"login":                account.Login,
		"numberOfRepositories": len(repositories),
	}).Debug("repositories listed from github")

	// all language requests are consumed upfront to avoid loading only part of them
	reposWithLanguagesToLoad := 0
	for _, r := range repositories {
		if r.Language != nil {
			reposWithLanguagesToLoad += 1
		}
	}

	if !s.githubRateLimiter.AllowN(time.Now(), reposWithLanguagesToLoad) {
		log.WithField("repositoriesToLoad", reposWithLanguagesToLoad).Warning("not enought requests in rate limiter to load languages for all repositories")
		return []model.RepositoryRecord{}, model.ErrRateLimitReached
	}

	return s.GetRepositoriesLanguages(ctx, repositories)
}

// GetRepositoriesLanguages fetches the languages of each repository in parallel,
// bounded by Tasks.MaxParallelTasksAllowed
func (s githubService) GetRepositoriesLanguages(ctx context.Context, repos []model.RepositoryRecord) ([]model.RepositoryRecord, error) {
	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)
	results := make(chan model.GithubRepositoryLanguages, len(repos))

	for _, r := range repos {
		// without a primary language, ListLanguages returns an empty map
		if r.Language == nil {
			log.WithFields(log.Fields{
				"repositoryID": r.ID,
			}).Debug("repository without most used language. skipped from loading languages list")

			results <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: map[string]int{}}
			continue
		}

		swg.Add()
		go s.FetchLanguagesForSingleRepository(ctx, r, &swg, results)
	}

	log.Debug("waiting for all threads for loading repositories to be finished")
	swg.Wait()
	close(results)

	langMap := make(map[int64]map[string]int)
	for result := range results {
		langMap[result.RepositoryID] = result.Languages
	}

	for i := range repos {
		if lang, found := langMap[repos[i].ID]; found {
			repos[i].Languages = lang
		} else {
			repos[i].Languages = map[string]int{}
		}
	}

	return repos, nil
}

// FetchLanguagesForSingleRepository sends the languages of one repository to ch.
// Nothing is sent on failure, the repository then contributes no language data.
// The rate limiter is not checked here, callers reserve tokens beforehand
func (s githubService) FetchLanguagesForSingleRepository(ctx context.Context, r model.RepositoryRecord, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error {
	defer swg.Done()

	owner, name, ok := strings.Cut(r.FullName, "/")
	if !ok {
		log.WithField("repositoryID", r.ID).Warning("repository full name without owner. languages skipped")
		return model.ErrInvalidData
	}

	res, _, err := s.githubClient.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		log.WithError(err).WithField("repository", r.FullName).Warning("unable to load repository languages. skipped")
		return s.HandleRequestErrors(err)
	}

	ch <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: res}
	return nil
}

// FetchContributions sums the commit activity of login over its non-fork repositories.
// Repositories whose statistics fail or are still being computed by github are skipped
func (s githubService) FetchContributions(ctx context.Context, login string, repos []model.RepositoryRecord) model.ContributionSummary {
	var summary model.ContributionSummary

	for _, r := range repos {
		if r.IsFork {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		owner, name, ok := strings.Cut(r.FullName, "/")
		if !ok {
			continue
		}

		if !s.githubRateLimiter.Allow() {
			log.WithField("login", login).Warning("rate limit reached while loading contributions. summary is partial")
			break
		}

		stats, _, err := s.githubClient.Repositories.ListContributorsStats(ctx, owner, name)
		if err != nil {
			var accepted *github.AcceptedError
			if errors.As(err, &accepted) {
				log.WithField("repository", r.FullName).Debug("contributor statistics still computing. skipped")
				continue
			}

			log.WithError(err).WithField("repository", r.FullName).Warning("unable to load contributor statistics. skipped")
			continue
		}

		for _, contributor := range stats {
			if !strings.EqualFold(contributor.GetAuthor().GetLogin(), login) {
				continue
			}

			commits := contributor.GetTotal()
			summary.TotalCommits += commits
			for _, week := range contributor.Weeks {
				summary.TotalAdditions += week.GetAdditions()
				summary.TotalDeletions += week.GetDeletions()
			}
			if commits > 0 {
				summary.ActiveRepositories += 1
			}
		}
	}

	log.WithFields(log.Fields{
		"login":              login,
		"totalCommits":       summary.TotalCommits,
		"activeRepositories": summary.ActiveRepositories,
	}).Debug("contributions loaded from github")

	return summary
}

// HandleRequestErrors maps github errors to the service errors in a single place.
// A rate limit error reserves the whole bucket so the local limiter stays aligned with github
func (s githubService) HandleRequestErrors(err error) error {
	var rateLimitErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		if r := s.githubRateLimiter.ReserveN(time.Now(), s.githubRateLimiter.Burst()); !r.OK() {
			return model.ErrRateLimiter
		}

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return model.ErrRateLimitReached
	}

	log.WithError(err).Error("error catched when fetching data from github")
	return model.ErrFetch
}
