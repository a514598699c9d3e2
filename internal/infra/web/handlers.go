package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
	"commerce-entitlement-service/internal/infra/metrics"
	"commerce-entitlement-service/internal/infra/payment"
	"commerce-entitlement-service/internal/usecase"
)

const statusPollTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---- checkout ----

type checkoutRequest struct {
	UserID      string `json:"user_id"`
	Kind        string `json:"kind"` // membership|course|product
	SubjectID   string `json:"subject_id"`
	Duration    string `json:"duration,omitempty"`
	CouponCode  string `json:"coupon_code,omitempty"`
	AffiliateID string `json:"affiliate_id,omitempty"`
	Description string `json:"description,omitempty"`
}

type checkoutResponse struct {
	TransactionID  string `json:"transaction_id"`
	PayURL         string `json:"pay_url"`
	Amount         int64  `json:"amount"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	Status         string `json:"status"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	t, err := s.checkoutUC.Initiate(r.Context(), usecase.CheckoutInput{
		UserID:      req.UserID,
		Kind:        model.PurchaseKind(req.Kind),
		SubjectID:   req.SubjectID,
		Duration:    model.MembershipDuration(req.Duration),
		CouponCode:  req.CouponCode,
		AffiliateID: req.AffiliateID,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrCouponExhausted):
			http.Error(w, "Coupon is no longer usable", http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to initiate checkout", http.StatusInternalServerError)
		}
		return
	}

	metrics.IncTransactionCreated(string(t.Kind))
	writeJSON(w, http.StatusCreated, checkoutResponse{
		TransactionID:  t.ID,
		PayURL:         t.PayURL,
		Amount:         t.Amount,
		OriginalAmount: t.OriginalAmount,
		DiscountAmount: t.DiscountAmount,
		Status:         string(t.Status),
	})
}

// ---- payment webhook (push intake) ----

type webhookRequest struct {
	ExternalID string     `json:"external_id"` // our transaction id
	InvoiceID  string     `json:"id"`
	Status     string     `json:"status"` // raw provider vocabulary
	PaidAmount int64      `json:"paid_amount"`
	PaidAt     *time.Time `json:"paid_at"`
}

// handleWebhook acknowledges with 2xx once the reconcile decision is
// durable; activation runs asynchronously. The provider retries on
// anything else, which is exactly what we want for transient storage
// errors.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !payment.VerifyCallbackToken(s.callbackToken, r.Header.Get("X-Callback-Token")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev := model.ConfirmationEvent{
		TransactionID: req.ExternalID,
		ProviderRef:   req.InvoiceID,
		Status:        payment.NormalizeProviderStatus(req.Status),
		Source:        model.SourcePush,
		PaidAmount:    req.PaidAmount,
		PaidAt:        req.PaidAt,
	}

	res, err := s.reconcileUC.Reconcile(r.Context(), ev)
	if err != nil {
		s.respondReconcileErr(w, r, err, model.SourcePush)
		return
	}
	metrics.IncReconcileEvent(string(model.SourcePush), reconcileOutcome(res))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           string(res.Transaction.Status),
		"transitioned":     res.Transitioned,
		"already_terminal": res.AlreadyTerminal,
	})
}

// ---- status check (poll fallback) ----

type statusResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// handleStatus answers from storage when the transaction is terminal.
// For a pending one it polls the gateway synchronously under a bounded
// deadline and feeds the verdict through Reconcile; any internal
// failure degrades to reporting the stored pending state, never an
// error status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.transactions.FindByID(r.Context(), repository.NoTX, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}

	if t.Status.Terminal() || t.ProviderRef == nil || *t.ProviderRef == "" {
		writeJSON(w, http.StatusOK, statusResponse{TransactionID: t.ID, Status: string(t.Status)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), statusPollTimeout)
	defer cancel()

	st, err := s.gateway.GetStatus(ctx, *t.ProviderRef)
	if err != nil {
		metrics.IncGatewayPoll("error")
		s.log.Warn().Err(err).Str("txn_id", t.ID).Msg("status check: gateway poll failed")
		writeJSON(w, http.StatusOK, statusResponse{TransactionID: t.ID, Status: string(model.TransactionStatusPending)})
		return
	}
	metrics.IncGatewayPoll(string(st.Status))

	res, err := s.reconcileUC.Reconcile(ctx, model.ConfirmationEvent{
		TransactionID: t.ID,
		Status:        st.Status,
		Source:        model.SourcePoll,
		PaidAmount:    st.PaidAmount,
		PaidAt:        st.PaidAt,
	})
	if err != nil {
		s.log.Error().Err(err).Str("txn_id", t.ID).Msg("status check: reconcile failed")
		writeJSON(w, http.StatusOK, statusResponse{TransactionID: t.ID, Status: string(model.TransactionStatusPending)})
		return
	}
	metrics.IncReconcileEvent(string(model.SourcePoll), reconcileOutcome(res))
	writeJSON(w, http.StatusOK, statusResponse{TransactionID: t.ID, Status: string(res.Transaction.Status)})
}

// ---- admin: manual confirmation ----

type manualConfirmRequest struct {
	Status string `json:"status"` // settled|failed
}

func (s *Server) handleManualConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req manualConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.reconcileUC.Reconcile(r.Context(), model.ConfirmationEvent{
		TransactionID: id,
		Status:        model.ReportedStatus(req.Status),
		Source:        model.SourceManual,
	})
	if err != nil {
		s.respondReconcileErr(w, r, err, model.SourceManual)
		return
	}
	metrics.IncReconcileEvent(string(model.SourceManual), reconcileOutcome(res))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           string(res.Transaction.Status),
		"transitioned":     res.Transitioned,
		"already_terminal": res.AlreadyTerminal,
	})
}

// ---- admin: activation re-run ----

// handleReactivate repeats the activation run for a settled
// transaction. This is the recovery path for partial runs: completed
// steps are no-ops, failed ones get another chance.
func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.activationUC.Activate(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Transaction is not settled", http.StatusConflict)
		default:
			http.Error(w, "Activation failed", http.StatusInternalServerError)
		}
		return
	}

	steps := make([]map[string]string, 0, len(res.StepErrors))
	for _, se := range res.StepErrors {
		steps = append(steps, map[string]string{"step": se.Step, "error": se.Err.Error()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": res.TransactionID,
		"granted":        res.GrantedSubjects,
		"partial":        res.Partial,
		"step_errors":    steps,
	})
}

// ---- admin: challenge reward workflow ----

type rewardRequest struct {
	AffiliateID string `json:"affiliate_id"`
	Status      string `json:"status"` // approved|rejected|claimed
}

func (s *Server) handleRewardStatus(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.challengeUC.SetRewardStatus(r.Context(), challengeID, req.AffiliateID, model.RewardStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrStorageConflict):
			http.Error(w, "Reward state changed concurrently", http.StatusConflict)
		default:
			http.Error(w, "Failed to update reward", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// ---- shared ----

func (s *Server) respondReconcileErr(w http.ResponseWriter, r *http.Request, err error, source model.ConfirmationSource) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, domain.ErrInvalidEvent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		metrics.IncReconcileEvent(string(source), "error")
		http.Error(w, "Failed to process confirmation", http.StatusInternalServerError)
	}
}

func reconcileOutcome(res *model.ReconcileResult) string {
	switch {
	case res.Transitioned:
		return string(res.Transaction.Status)
	case res.AlreadyTerminal:
		return "already_terminal"
	default:
		return "noop"
	}
}
