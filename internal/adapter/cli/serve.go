package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/adapter/llm/openai"
	"github.com/reviewbotdev/reviewbot/internal/adapter/oidc"
	"github.com/reviewbotdev/reviewbot/internal/config"
	"github.com/reviewbotdev/reviewbot/internal/server"
	"github.com/reviewbotdev/reviewbot/internal/usecase/quota"
)

func serveCommand(settings config.Settings, logger *httpx.Logger) *cobra.Command {
	srv := settings.Server

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if srv.OpenAIAPIKey == "" {
				return errors.New("OpenAI API key not configured (set OPENAI_API_KEY)")
			}

			verifier, err := oidc.NewVerifier(cmd.Context(), srv.Issuer, srv.JWKSURL, srv.OIDCAudience)
			if err != nil {
				return err
			}

			generator := openai.NewClient(srv.OpenAIAPIKey, srv.OpenAIModel)
			if srv.OpenAIBaseURL != "" {
				generator.SetBaseURL(srv.OpenAIBaseURL)
			}

			allowlist := oidc.Allowlist{
				AllowAll: srv.AllowAll,
				Repos:    srv.AllowRepos,
				Orgs:     srv.AllowOrgs,
			}

			api := server.New(verifier, allowlist, quota.NewGate(srv.QuotaPerRepoPerDay), generator, logger)

			httpServer := &http.Server{
				Addr:              srv.Addr,
				Handler:           api.Handler(srv.RateLimitPerMinute),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("review API listening", httpx.Fields{"addr": srv.Addr})
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&srv.Addr, "addr", srv.Addr, "Listen address")
	flags.IntVar(&srv.QuotaPerRepoPerDay, "quota-per-repo-per-day", srv.QuotaPerRepoPerDay, "Daily review quota per repository (0 disables)")
	flags.IntVar(&srv.RateLimitPerMinute, "rate-limit-per-minute", srv.RateLimitPerMinute, "Requests per client IP per minute (0 disables)")

	return cmd
}
