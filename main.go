package main

import (
	"context"
	"fmt"
	"os"

	"github.com/FlorianRuen/skillsync/broker"
	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/logger"
	"github.com/FlorianRuen/skillsync/service"
	"github.com/FlorianRuen/skillsync/store"
	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "skillsync",
	Short:         "Build skill profiles from linked github accounts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the TOML configuration file (default: config/config.toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given, otherwise searches the default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return loadConfigFile(path)
}

func loadConfigFile(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}

	logger.Setup(*cfg)
	return cfg, nil
}

// app holds the dependencies shared by every command
type app struct {
	config   config.Config
	store    store.Store
	broker   broker.Broker
	profiles service.ProfileService
	syncer   service.SyncService
}

func bootstrap(ctx context.Context, cfg config.Config) (*app, error) {
	// the client is built here and injected so tests can pass a mocked one
	githubClient := github.NewClient(nil)
	if cfg.Github.Token != "" {
		log.Debug("will setup github client with authorization token")
		githubClient = githubClient.WithAuthToken(cfg.Github.Token)
	}

	log.Debug("loading current rate limit from github")
	rateLimiter, err := service.NewGithubRateLimiter(ctx, githubClient)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}

	var b broker.Broker
	if cfg.Redis.URL != "" {
		rdb, err := broker.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			st.Close()
			return nil, err
		}
		b = broker.NewRedisBroker(rdb)
	} else {
		log.Info("no redis configured, sync locks are local to this process")
		b = broker.NewLocalBroker()
	}

	githubService := service.NewGithubService(cfg, githubClient, rateLimiter)
	profileService := service.NewProfileService(cfg, st)

	return &app{
		config:   cfg,
		store:    st,
		broker:   b,
		profiles: profileService,
		syncer:   service.NewSyncService(cfg, githubService, profileService, st, b),
	}, nil
}

func (a *app) Close() {
	if err := a.broker.Close(); err != nil {
		log.WithError(err).Warning("unable to close broker")
	}
	if err := a.store.Close(); err != nil {
		log.WithError(err).Warning("unable to close store")
	}
}
