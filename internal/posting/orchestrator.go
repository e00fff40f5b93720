// Package posting drives the two-phase draft/post workflow: an idempotent
// create-draft call followed by an optional idempotent post call.
package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/nav"
)

// State of the workflow.
type State string

const (
	StateIdle          State = "IDLE"
	StateBuildingDraft State = "BUILDING_DRAFT"
	StateDraftCreated  State = "DRAFT_CREATED"
	StatePostingDraft  State = "POSTING_DRAFT"
	StatePosted        State = "POSTED"
	StateFailed        State = "FAILED"
)

var (
	// ErrNotSubmittable indicates Submit was called outside Idle/Failed.
	ErrNotSubmittable = errors.New("posting: workflow already has a draft in flight")
	// ErrNoDraft indicates a post, patch or discard without a created draft.
	ErrNoDraft = errors.New("posting: no draft has been created yet")
	// ErrFinished indicates the workflow already posted its transaction.
	ErrFinished = errors.New("posting: transaction already posted")
)

// BackendPort is the slice of the API client the orchestrator needs.
type BackendPort interface {
	CreateDraft(ctx context.Context, kind api.TransactionKind, req api.DraftRequest, idemKey string) (*api.Transaction, error)
	PatchTransaction(ctx context.Context, id int64, req api.PatchRequest, idemKey string) (*api.Transaction, error)
	PostTransaction(ctx context.Context, id int64, req api.PostRequest, idemKey string) (*api.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64, idemKey string) error
}

// Orchestrator owns one transaction's draft/post lifecycle. Not safe for
// concurrent use; each composing session owns exactly one.
type Orchestrator struct {
	backend BackendPort
	logger  *slog.Logger
	kind    api.TransactionKind

	state   State
	draft   *api.Transaction
	lastErr error
}

// NewOrchestrator starts a workflow in Idle for the given transaction kind.
func NewOrchestrator(backend BackendPort, kind api.TransactionKind, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{backend: backend, logger: logger, kind: kind, state: StateIdle}
}

// State returns the current workflow state.
func (o *Orchestrator) State() State { return o.state }

// Draft returns the created draft as the backend returned it. Server-computed
// totals may differ from client estimates; they are displayed as-is, never
// reconciled.
func (o *Orchestrator) Draft() *api.Transaction { return o.draft }

// LastError returns the failure that moved the workflow to Failed, if any.
func (o *Orchestrator) LastError() error { return o.lastErr }

// newAttemptKey generates the idempotency key for one logical attempt. Every
// attempt gets a fresh key, including a retry after a network failure; the
// backend treats idempotency per key, not per logical content.
func newAttemptKey() string {
	return uuid.NewString()
}

// Submit issues the create-draft call. Allowed from Idle and from Failed
// (a failed creation leaves no draft behind, so the user may simply retry).
func (o *Orchestrator) Submit(ctx context.Context, req api.DraftRequest) (*api.Transaction, error) {
	if o.state == StatePosted {
		return nil, ErrFinished
	}
	if o.state != StateIdle && o.state != StateFailed {
		return nil, ErrNotSubmittable
	}
	o.state = StateBuildingDraft
	key := newAttemptKey()
	created, err := o.backend.CreateDraft(ctx, o.kind, req, key)
	if err != nil {
		o.state = StateFailed
		o.lastErr = err
		o.logger.Warn("create draft failed",
			slog.String("kind", string(o.kind)),
			slog.Any("error", err))
		return nil, err
	}
	o.state = StateDraftCreated
	o.draft = created
	o.lastErr = nil
	o.logger.Info("draft created",
		slog.String("kind", string(o.kind)),
		slog.Int64("transaction_id", created.ID),
		slog.String("number", created.Number))
	return created, nil
}

// Patch applies draft-only edits and replaces the stored draft with the
// backend's updated view.
func (o *Orchestrator) Patch(ctx context.Context, req api.PatchRequest) (*api.Transaction, error) {
	if o.state != StateDraftCreated {
		return nil, ErrNoDraft
	}
	updated, err := o.backend.PatchTransaction(ctx, o.draft.ID, req, newAttemptKey())
	if err != nil {
		// The draft is untouched server-side; stay editable.
		return nil, err
	}
	o.draft = updated
	return updated, nil
}

// ConfirmPost finalises the draft, optionally carrying an immediate payment
// or refund instruction. A failure returns the workflow to DraftCreated; the
// draft stays postable and editable.
func (o *Orchestrator) ConfirmPost(ctx context.Context, req api.PostRequest) (*api.Transaction, error) {
	if o.state == StatePosted {
		return nil, ErrFinished
	}
	if o.state != StateDraftCreated {
		return nil, ErrNoDraft
	}
	o.state = StatePostingDraft
	posted, err := o.backend.PostTransaction(ctx, o.draft.ID, req, newAttemptKey())
	if err != nil {
		o.state = StateDraftCreated
		o.logger.Warn("post failed",
			slog.Int64("transaction_id", o.draft.ID),
			slog.Any("error", err))
		return nil, err
	}
	o.state = StatePosted
	o.draft = posted
	o.logger.Info("transaction posted",
		slog.Int64("transaction_id", posted.ID),
		slog.String("number", posted.Number))
	return posted, nil
}

// Discard deletes the draft and returns the workflow to Idle.
func (o *Orchestrator) Discard(ctx context.Context) error {
	if o.state != StateDraftCreated {
		return ErrNoDraft
	}
	if err := o.backend.DeleteTransaction(ctx, o.draft.ID, newAttemptKey()); err != nil {
		return err
	}
	o.logger.Info("draft discarded", slog.Int64("transaction_id", o.draft.ID))
	o.state = StateIdle
	o.draft = nil
	return nil
}

// Handoff returns the explicit navigation payload for the posted transaction.
func (o *Orchestrator) Handoff() (nav.Payload, error) {
	if o.state != StatePosted || o.draft == nil {
		return nav.Payload{}, fmt.Errorf("posting: nothing posted to hand off")
	}
	return nav.Payload{Entity: nav.EntityTransaction, ID: o.draft.ID}, nil
}
