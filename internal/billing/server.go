// Package billing serves the Stripe webhook and billing portal endpoints.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxWebhookBody bounds webhook payloads.
const maxWebhookBody = 65536

const shutdownTimeout = 10 * time.Second

// Config holds the resolved server settings and secrets.
type Config struct {
	Addr          string
	SecretKey     string
	WebhookSecret string
	// ReturnURL is where the billing portal sends customers back to. When
	// empty the request's own origin is used.
	ReturnURL   string
	Development bool
	DebugToken  string
	// LedgerName is reported by the debug endpoint.
	LedgerName string
}

// Server wires the billing handlers.
type Server struct {
	cfg     Config
	ledger  Ledger
	handler EventHandler
	portal  PortalClient
}

// NewServer builds a Server. A nil ledger selects a MemoryLedger, a nil
// handler a LogHandler. portal may be nil when no secret key is configured.
func NewServer(cfg Config, ledger Ledger, handler EventHandler, portal PortalClient) *Server {
	if ledger == nil {
		ledger = NewMemoryLedger(DefaultLedgerTTL)
	}
	if handler == nil {
		handler = LogHandler{}
	}
	return &Server{cfg: cfg, ledger: ledger, handler: handler, portal: portal}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	r.Post("/api/stripe-webhook", s.handleWebhook)
	r.Post("/api/webhook", s.handleWebhook)
	r.HandleFunc("/api/create-portal-session", s.handlePortal)

	r.Group(func(r chi.Router) {
		r.Use(s.debugGate)
		r.Get("/api/debug-config", s.handleDebugConfig)
		r.Get("/api/test", s.handleTest)
	})
	return r
}

// ListenAndServe runs the server until ctx ends, then shuts it down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", s.cfg.Addr).Msg("Billing server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down billing server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret == "" {
		log.Error().Msg("Webhook received but no webhook secret is configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook handler failed"})
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := VerifyEvent(payload, r.Header.Get("Stripe-Signature"), s.cfg.WebhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected webhook")
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}
	logger := log.With().Str("event_id", event.ID).Str("type", string(event.Type)).Logger()
	ctx := r.Context()

	claimed, err := s.ledger.Claim(ctx, event.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to claim event in ledger")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook handler failed"})
		return
	}
	if !claimed {
		logger.Info().Msg("Duplicate webhook delivery acknowledged")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if HandledEvents[string(event.Type)] {
		if err := s.handler.HandleEvent(ctx, event); err != nil {
			logger.Error().Err(err).Msg("Webhook handler failed")
			// Released so a Stripe retry runs the handler again.
			if rerr := s.ledger.Release(context.WithoutCancel(ctx), event.ID); rerr != nil {
				logger.Error().Err(rerr).Msg("Failed to release event claim")
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook handler failed"})
			return
		}
	} else {
		logger.Info().Msg("Unhandled event type")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type portalRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.portal == nil || s.cfg.SecretKey == "" {
		writeError(w, http.StatusInternalServerError, ErrNotConfigured.Error())
		return
	}

	var req portalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctx := r.Context()
	customer, err := s.portal.CheckoutSessionCustomer(ctx, req.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", req.SessionID).Msg("Checkout session lookup failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	url, err := s.portal.CreatePortalSession(ctx, customer, s.returnURL(r))
	if err != nil {
		log.Warn().Err(err).Str("customer", customer).Msg("Portal session creation failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) returnURL(r *http.Request) string {
	if s.cfg.ReturnURL != "" {
		return s.cfg.ReturnURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

// debugGate hides the debug routes unless the server runs in development
// mode or the request presents the debug token.
func (s *Server) debugGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Debug-Token")
		if s.cfg.Development || (s.cfg.DebugToken != "" && token == s.cfg.DebugToken) {
			next.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func (s *Server) handleDebugConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"hasSecretKey":     s.cfg.SecretKey != "",
		"hasWebhookSecret": s.cfg.WebhookSecret != "",
		"hasReturnUrl":     s.cfg.ReturnURL != "",
		"development":      s.cfg.Development,
		"ledger":           s.cfg.LedgerName,
	})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"stripeConfigured": s.cfg.SecretKey != "" && s.cfg.WebhookSecret != "",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]map[string]string{"error": {"message": msg}})
}
