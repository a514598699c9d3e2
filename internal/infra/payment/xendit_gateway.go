package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PaymentGateway = (*XenditGateway)(nil)

// XenditGateway implements adapter.PaymentGateway against the Xendit
// invoice API using direct HTTP calls. The transaction ID is passed as
// the invoice external_id, which is how webhook payloads and status
// polls are mapped back to our rows.
type XenditGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewXenditGateway(secretKey, baseURL string) *XenditGateway {
	if baseURL == "" {
		baseURL = "https://api.xendit.co"
	}
	return &XenditGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *XenditGateway) Name() string { return "xendit" }

// xenditInvoice is the subset of the invoice object we consume.
type xenditInvoice struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	InvoiceURL string     `json:"invoice_url"`
	PaidAmount int64      `json:"paid_amount"`
	PaidAt     *time.Time `json:"paid_at"`
}

func (g *XenditGateway) CreateInvoice(ctx context.Context, transactionID string, amount int64, description string) (*adapter.Invoice, error) {
	payload := map[string]interface{}{
		"external_id": transactionID,
		"amount":      amount,
		"description": description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/invoices", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create invoice request: %w", err)
	}
	req.SetBasicAuth(g.secretKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send invoice request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read invoice response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xendit create invoice: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var inv xenditInvoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice response: %w, body: %s", err, string(raw))
	}
	return &adapter.Invoice{ProviderRef: inv.ID, PayURL: inv.InvoiceURL}, nil
}

func (g *XenditGateway) GetStatus(ctx context.Context, providerRef string) (*adapter.GatewayStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v2/invoices/"+providerRef, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	req.SetBasicAuth(g.secretKey, "")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xendit get invoice: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var inv xenditInvoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal status response: %w, body: %s", err, string(raw))
	}

	st := &adapter.GatewayStatus{
		Status:     NormalizeProviderStatus(inv.Status),
		PaidAmount: inv.PaidAmount,
		PaidAt:     inv.PaidAt,
	}
	return st, nil
}

// NormalizeProviderStatus maps raw Xendit invoice statuses onto the
// three verdicts the reconciliation engine understands. Anything
// unrecognized is treated as still pending rather than failing a
// transaction on a vocabulary change.
func NormalizeProviderStatus(raw string) model.ReportedStatus {
	switch raw {
	case "PAID", "SETTLED":
		return model.ReportedSettled
	case "EXPIRED", "FAILED":
		return model.ReportedFailed
	default:
		return model.ReportedPending
	}
}
