package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FlorianRuen/skillsync/controller"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/scheduler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the batch scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, *cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(
			gin.Recovery(),
			cors.New(cors.Config{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "PATCH"},
				AllowHeaders: []string{"Content-Type, Content-Length, Accept-Encoding, Host, accept, Origin, Cache-Control, X-Requested-With"},
				MaxAge:       12 * time.Hour,
			}),
		)
		controller.RegisterRoutes(router, controller.NewAPIController(*cfg, a.syncer, a.profiles))

		server := &http.Server{
			Addr:    ":" + cfg.API.ListenPort,
			Handler: router,
		}

		var sched *scheduler.Scheduler
		if cfg.Scheduler.Enabled {
			sched = scheduler.New(cfg.Scheduler, a.syncer)
			if err := sched.Start(ctx); err != nil {
				return err
			}
		}

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info("server listening on port " + cfg.API.ListenPort)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error while starting server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			log.Info("SIGINT, SIGTERM received, will shut down server ...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if sched != nil {
				select {
				case <-sched.Stop().Done():
				case <-shutdownCtx.Done():
					log.Warning("scheduled batch still running at shutdown")
				}
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			log.Info("Application stopped gracefully !")
			return nil
		})

		return g.Wait()
	},
}

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize one user and print the resulting analysis",
	Long: `Synchronize one user and print the resulting analysis.

Examples:
  skillsync sync --user-id 5f0c --username octocat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		username, _ := cmd.Flags().GetString("username")
		if userID == "" || username == "" {
			return fmt.Errorf("--user-id and --username are required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, *cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.syncer.SyncUser(ctx, userID, username)
		if err != nil {
			return err
		}

		return printJSON(result)
	},
}

// --- batch ---

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run one batch synchronization over every linked account",
	Long: `Run one batch synchronization over every linked account.

Examples:
  skillsync batch --mode full
  skillsync batch --mode incremental`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, *cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.syncer.SyncAll(ctx, model.BatchMode(mode))
		if err != nil {
			return err
		}

		return printJSON(report)
	},
}

func init() {
	syncCmd.Flags().String("user-id", "", "application user id")
	syncCmd.Flags().String("username", "", "github username, @handle or profile url")

	batchCmd.Flags().String("mode", string(model.BatchFull), "batch mode: full or incremental")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
