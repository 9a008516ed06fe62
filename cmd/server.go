package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/field-scheduler/internal/auth"
	"github.com/example/field-scheduler/internal/config"
	"github.com/example/field-scheduler/internal/crypto"
	"github.com/example/field-scheduler/internal/db"
	"github.com/example/field-scheduler/internal/logging"
	"github.com/example/field-scheduler/internal/migrate"
	"github.com/example/field-scheduler/internal/records"
	"github.com/example/field-scheduler/internal/salesforce"
	"github.com/example/field-scheduler/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			log := logging.New(cfg.LogLevel, cfg.LogFormat)
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			aead, err := crypto.New(cfg.CredentialKey)
			if err != nil {
				return fmt.Errorf("credential key: %w", err)
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			credStore := auth.NewCredentialStore(d, aead)
			bookingLog := records.NewRepo(d)

			newUpstream := func(creds salesforce.Credentials) web.Upstream {
				return salesforce.New(creds, salesforce.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}))
			}

			srv := web.NewServer(log, authStore, credStore, bookingLog, newUpstream, cfg.CORSOrigins)
			return web.Start(ctx, cfg.ListenAddr, srv.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
