package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain/ports/adapter"
	"commerce-entitlement-service/internal/domain/ports/repository"
	"commerce-entitlement-service/internal/usecase"
)

type Server struct {
	reconcileUC  usecase.ReconcileUseCase
	activationUC usecase.ActivationUseCase
	checkoutUC   usecase.CheckoutUseCase
	challengeUC  usecase.ChallengeUseCase
	transactions repository.TransactionRepository
	gateway      adapter.PaymentGateway

	auth          *AuthManager
	apiKey        string // admin login credential
	callbackToken string // webhook x-callback-token
	log           *zerolog.Logger
}

func NewServer(
	reconcileUC usecase.ReconcileUseCase,
	activationUC usecase.ActivationUseCase,
	checkoutUC usecase.CheckoutUseCase,
	challengeUC usecase.ChallengeUseCase,
	transactions repository.TransactionRepository,
	gateway adapter.PaymentGateway,
	auth *AuthManager,
	apiKey, callbackToken string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconcileUC:   reconcileUC,
		activationUC:  activationUC,
		checkoutUC:    checkoutUC,
		challengeUC:   challengeUC,
		transactions:  transactions,
		gateway:       gateway,
		auth:          auth,
		apiKey:        apiKey,
		callbackToken: callbackToken,
		log:           logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", s.handleCheckout)
		r.Post("/webhooks/payment", s.handleWebhook)
		r.Get("/transactions/{id}/status", s.handleStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/transactions/{id}/confirm", s.handleManualConfirm)
				r.Post("/transactions/{id}/activate", s.handleReactivate)
				r.Post("/challenges/{id}/reward", s.handleRewardStatus)
			})
		})
	})

	return r
}

// requireAdmin guards admin routes with the JWT session minted at login.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	key := r.Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
