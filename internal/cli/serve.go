package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chris/cetes/config"
	"github.com/chris/cetes/internal/discord"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/scheduler"
	"github.com/chris/cetes/internal/web"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI, the refresh scheduler and the Discord bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.Logger()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			go a.ensureData(context.WithoutCancel(ctx))

			sched := scheduler.New(a.refresher, cfg.RefreshCron)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			if cfg.DiscordToken != "" {
				bot, err := discord.NewBot(cfg.DiscordToken, a.responder, a.db)
				if err != nil {
					log.Error("discord bot disabled", "err", err)
				} else {
					defer bot.Close()
				}
			}

			srv := web.NewServer(a.db, a.responder, a.refresher, cfg.AudioDir)
			err = srv.ListenAndServe(ctx, addr)
			log.Info("shutting down")
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", cfg.ListenAddr, "Address for the web UI")
	return cmd
}
