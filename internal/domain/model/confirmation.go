// File: internal/domain/model/confirmation.go
package model

import "time"

// ConfirmationSource tags which intake produced a confirmation event.
type ConfirmationSource string

const (
	SourcePush   ConfirmationSource = "push"   // provider webhook
	SourcePoll   ConfirmationSource = "poll"   // reconciler or status endpoint
	SourceManual ConfirmationSource = "manual" // admin confirmation
)

// ReportedStatus is the normalized provider verdict carried by a
// confirmation event.
type ReportedStatus string

const (
	ReportedSettled ReportedStatus = "settled"
	ReportedPending ReportedStatus = "pending"
	ReportedFailed  ReportedStatus = "failed"
)

func (s ReportedStatus) Valid() bool {
	switch s {
	case ReportedSettled, ReportedPending, ReportedFailed:
		return true
	}
	return false
}

// ConfirmationEvent is the single normalized input of the reconciliation
// engine. Either TransactionID or ProviderRef must identify the
// purchase; everything upstream (webhook payloads, poll responses,
// admin requests) is translated into this shape before reconciling.
type ConfirmationEvent struct {
	TransactionID string
	ProviderRef   string
	Status        ReportedStatus
	Source        ConfirmationSource
	PaidAmount    int64
	PaidAt        *time.Time
}

// ReconcileResult reports what a confirmation event did. Exactly one of
// Transitioned, AlreadyTerminal or Noop is set.
type ReconcileResult struct {
	Transaction      *Transaction
	Transitioned     bool // this event won the terminal transition
	AlreadyTerminal  bool
	Noop             bool // reported status was still pending
	ActivationQueued bool
}

// StepError records the failure of one activation step without
// aborting the run.
type StepError struct {
	Step string
	Err  error
}

// ActivationResult summarizes one activation run. Partial means at
// least one step failed and the run should be repeated; completed
// steps are no-ops on the retry.
type ActivationResult struct {
	TransactionID    string
	GrantedSubjects  []string
	Revenue          *RevenueDistribution
	ChallengeUpdates []ProgressUpdate
	CouponConsumed   bool
	Partial          bool
	StepErrors       []StepError
}
