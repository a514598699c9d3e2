package adapter

import (
	"context"
	"time"

	"commerce-entitlement-service/internal/domain/model"
)

// Invoice is the provider's handle for a payment request.
type Invoice struct {
	ProviderRef string
	PayURL      string
}

// GatewayStatus is the normalized provider verdict for one invoice.
type GatewayStatus struct {
	Status     model.ReportedStatus
	PaidAmount int64
	PaidAt     *time.Time
}

// PaymentGateway abstracts the payment provider. Treated as slow and
// unreliable: callers bound every call with a context deadline and
// never let a gateway error flip a transaction to a terminal status.
type PaymentGateway interface {
	Name() string
	CreateInvoice(ctx context.Context, transactionID string, amount int64, description string) (*Invoice, error)
	GetStatus(ctx context.Context, providerRef string) (*GatewayStatus, error)
}
