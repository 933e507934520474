// Command pbpbot is the play-by-post activity engine for one Telegram
// group: it folds pending updates into the activity snapshot, runs the
// periodic checks, and posts whatever they produce.
//
// Usage:
//
//	pbpbot run
//	pbpbot serve
//	pbpbot state init
//	pbpbot state show --json
//	pbpbot config validate
//	pbpbot changelog --file CHANGELOG.md
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/api"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/archive"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/bot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/store"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pbpbot",
		Short: "Play-by-post activity engine for Telegram forum groups",
	}

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(stateCmd())
	root.AddCommand(configCmd())
	root.AddCommand(changelogCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one engine pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(ctx context.Context, cfg *config.Config, r *bot.Runner) error {
				status, err := r.RunOnce(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				for _, e := range status.Intake.Errors {
					logger.Error("intake error", "error", e)
				}
				for _, e := range status.Checks.Errors {
					logger.Error("check error", "error", e)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// serve command
// --------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Repeat the engine pass on an interval, with the status server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(ctx context.Context, cfg *config.Config, r *bot.Runner) error {
				router := api.NewRouter(r, r.Group, cfg)

				addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
				srv := &http.Server{
					Addr:         addr,
					Handler:      router,
					ReadTimeout:  10 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  60 * time.Second,
				}

				// Start status server in background
				go func() {
					logger.Info("Status server listening",
						"addr", addr,
						"environment", cfg.Environment)
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("Status server failed", "error", err)
						os.Exit(1)
					}
				}()

				// Blocks until the context is cancelled by a signal.
				r.Serve(ctx, cfg.ServeInterval)

				logger.Info("Shutting down...")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Shutdown error", "error", err)
				}
				logger.Info("Server stopped")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// state commands
// --------------------------------------------------------------------------

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and initialise the snapshot store",
	}
	cmd.AddCommand(stateInitCmd())
	cmd.AddCommand(stateShowCmd())
	return cmd
}

func stateInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty snapshot in the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				// Load returns a fresh snapshot on an empty backend, so
				// re-running init never clobbers existing state.
				snap, err := st.Load(ctx)
				if err != nil {
					return fmt.Errorf("load snapshot: %w", err)
				}
				if err := st.Save(ctx, snap); err != nil {
					return fmt.Errorf("save snapshot: %w", err)
				}
				logger.Info("State initialised",
					"backend", cfg.StateBackend,
					"offset", snap.Offset)
				return nil
			})
		},
	}
}

func stateShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				snap, err := st.Load(ctx)
				if err != nil {
					return fmt.Errorf("load snapshot: %w", err)
				}
				if asJSON {
					out, err := json.MarshalIndent(snap, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				}
				fmt.Printf("backend:   %s\n", cfg.StateBackend)
				fmt.Printf("offset:    %d\n", snap.Offset)
				fmt.Printf("campaigns: %d tracked\n", len(snap.Topics))
				fmt.Printf("players:   %d on rosters\n", len(snap.Players))
				fmt.Printf("away:      %d\n", len(snap.Away))
				fmt.Printf("paused:    %d\n", len(snap.Paused))
				fmt.Printf("combats:   %d active\n", len(snap.Combats))
				fmt.Printf("awards:    %d pending\n", len(snap.Pending))
				if snap.LastArchivedWeek != "" {
					fmt.Printf("archived:  %s\n", snap.LastArchivedWeek)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Dump the raw snapshot document")
	return cmd
}

// --------------------------------------------------------------------------
// config command
// --------------------------------------------------------------------------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Group configuration tools",
	}
	cmd.AddCommand(configValidateCmd())
	return cmd
}

func configValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the group configuration file for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := config.LoadGroupConfig(file)
			if err != nil {
				return err
			}
			problems := group.Validate()
			warnings := 0
			for _, p := range problems {
				if p.Fatal {
					fmt.Printf("ERROR: %s\n", p.Message)
				} else {
					fmt.Printf("warning: %s\n", p.Message)
					warnings++
				}
			}
			if config.HasFatal(problems) {
				return fmt.Errorf("%s: configuration has fatal problems", file)
			}
			fmt.Printf("%s: OK (%d campaigns, %d warnings)\n",
				file, len(group.Maps().Campaigns), warnings)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", groupConfigDefault(), "Group configuration file")
	return cmd
}

func groupConfigDefault() string {
	if path := os.Getenv("GROUP_CONFIG"); path != "" {
		return path
	}
	return "config.json"
}

// --------------------------------------------------------------------------
// changelog command
// --------------------------------------------------------------------------

const continuedPrefix = "(continued)\n\n"

func changelogCmd() *cobra.Command {
	var file string
	var thread int64
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Post the newest changelog entry to the community thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(func(ctx context.Context, cfg *config.Config) error {
				group, err := loadGroup(cfg.GroupConfigPath)
				if err != nil {
					return err
				}

				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read changelog: %w", err)
				}
				header, body := report.LatestEntry(string(data))
				if header == "" {
					logger.Info("No version entry found, skipping", "file", file)
					return nil
				}

				if thread == 0 {
					thread = cfg.ChangelogThreadID
				}
				text := report.ChangelogMessage(header, body)
				client := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, cfg.TelegramRateLimit, logger)

				// Reserve room for the prefix so no chunk ever exceeds
				// the Bot API limit once it is prepended.
				chunks := report.SplitMessage(text, report.MaxMessageLength-len(continuedPrefix))
				for i, chunk := range chunks {
					if i > 0 {
						chunk = continuedPrefix + chunk
					}
					if _, err := client.SendHTML(ctx, group.GroupID, thread, chunk); err != nil {
						return fmt.Errorf("post chunk %d/%d: %w", i+1, len(chunks), err)
					}
					logger.Info("Posted changelog chunk",
						"chunk", i+1, "total", len(chunks), "bytes", len(chunk))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "CHANGELOG.md", "Changelog file to read")
	cmd.Flags().Int64Var(&thread, "thread", 0, "Thread id override (default CHANGELOG_THREAD_ID)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withConfig handles .env-backed configuration and signal cancellation.
func withConfig(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return fn(ctx, cfg)
}

// withStore opens the snapshot store on top of withConfig.
func withStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	return withConfig(func(ctx context.Context, cfg *config.Config) error {
		st, err := store.Open(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer st.Close()
		return fn(ctx, cfg, st)
	})
}

// withRunner assembles the full engine: group configuration, snapshot
// store, Telegram client, and archive writer.
func withRunner(fn func(ctx context.Context, cfg *config.Config, r *bot.Runner) error) error {
	return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		group, err := loadGroup(cfg.GroupConfigPath)
		if err != nil {
			return err
		}
		runner := &bot.Runner{
			Group:   group,
			Store:   st,
			Client:  telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, cfg.TelegramRateLimit, logger),
			Archive: archive.NewWriter(cfg.ArchiveDir),
			Logger:  logger,
		}
		return fn(ctx, cfg, runner)
	})
}

// loadGroup reads and validates the group configuration file. Fatal
// findings abort; warnings are logged and tolerated.
func loadGroup(path string) (*config.GroupConfig, error) {
	group, err := config.LoadGroupConfig(path)
	if err != nil {
		return nil, err
	}
	problems := group.Validate()
	for _, p := range problems {
		if p.Fatal {
			logger.Error("Group config error", "problem", p.Message)
		} else {
			logger.Warn("Group config warning", "problem", p.Message)
		}
	}
	if config.HasFatal(problems) {
		return nil, fmt.Errorf("group config %s has fatal problems", path)
	}
	return group, nil
}
