package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/billing"
	"github.com/karolswdev/promptforge/internal/config"
)

// webhookLedgerFileName holds processed event ids for the sqlite ledger.
const webhookLedgerFileName = "webhooks.db"

func (a *app) newServeCmd() *cobra.Command {
	var (
		addr        string
		development bool
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the Stripe webhook and billing portal server",
		Long: `Serves the billing endpoints:

  POST /api/stripe-webhook, /api/webhook   signed Stripe events
  POST /api/create-portal-session          billing portal link for a checkout session
  GET  /api/debug-config, /api/test        diagnostics, development or X-Debug-Token only

Secrets come from 'pforge config set-key stripe|stripe-webhook' or the
STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET environment variables.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			cfg, err := provider.Config.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("development") {
				cfg.Server.Development = development
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveRunE(ctx, cfg, provider.Keyring)
		}),
	}
	c.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	c.Flags().BoolVar(&development, "development", false, "Expose the debug endpoints without a token")
	return c
}

func serveRunE(ctx context.Context, cfg *config.AppConfig, keys KeyringClient) error {
	bc, err := buildServerConfig(cfg, keys)
	if err != nil {
		return err
	}
	ledger, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			Log.Warn().Err(err).Msg("Failed to close webhook ledger")
		}
	}()

	var portal billing.PortalClient
	if bc.SecretKey != "" {
		portal = billing.NewStripePortal(bc.SecretKey)
	}
	return billing.NewServer(bc, ledger, nil, portal).ListenAndServe(ctx)
}

// buildServerConfig resolves the server settings and Stripe secrets. Missing
// secrets only disable the endpoints that need them.
func buildServerConfig(cfg *config.AppConfig, keys KeyringClient) (billing.Config, error) {
	bc := billing.Config{
		Addr:        cfg.Server.Addr,
		ReturnURL:   cfg.Server.PortalReturnURL,
		Development: cfg.Server.Development,
		DebugToken:  cfg.Server.DebugToken,
		LedgerName:  cfg.Server.Ledger,
	}

	var err error
	if bc.SecretKey, err = optionalSecret(keys, config.SecretStripe); err != nil {
		return billing.Config{}, err
	}
	if bc.WebhookSecret, err = optionalSecret(keys, config.SecretStripeWebhook); err != nil {
		return billing.Config{}, err
	}
	if bc.SecretKey == "" {
		Log.Warn().Msg("Stripe secret key not set. The billing portal endpoint will fail.")
	}
	if bc.WebhookSecret == "" {
		Log.Warn().Msg("Stripe webhook secret not set. Webhooks will be rejected.")
	}

	if !bc.Development && bc.DebugToken == "" {
		bc.DebugToken = uuid.NewString()
		Log.Info().Str("debug_token", bc.DebugToken).Msg("Generated debug token for this run; send it as X-Debug-Token")
	}
	return bc, nil
}

func optionalSecret(keys KeyringClient, s config.Secret) (string, error) {
	v, err := keys.Get(s)
	if err != nil {
		if errors.Is(err, config.ErrSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

// openLedger returns the configured webhook ledger and its closer.
func openLedger(cfg *config.AppConfig) (billing.Ledger, func() error, error) {
	if cfg.Server.Ledger != config.LedgerSQLite {
		return billing.NewMemoryLedger(billing.DefaultLedgerTTL), func() error { return nil }, nil
	}
	l, err := billing.OpenSQLiteLedger(filepath.Join(cfg.Dir, webhookLedgerFileName))
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}
