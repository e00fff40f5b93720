// Package allocation plans how a payment or return credit is applied across
// a party's open documents.
package allocation

import (
	"errors"
	"fmt"

	"github.com/transflow/transflow/internal/api"
)

var (
	// ErrEntryExceedsOutstanding indicates an amount above a document's outstanding balance.
	ErrEntryExceedsOutstanding = errors.New("allocation: amount exceeds document outstanding")
	// ErrSumExceedsTotal indicates manual allocations above the payment total.
	ErrSumExceedsTotal = errors.New("allocation: allocated sum exceeds payment amount")
	// ErrUnknownDocument indicates an entry for a document not in the open set.
	ErrUnknownDocument = errors.New("allocation: unknown target document")
)

// OpenDocument is a posted transaction with outstanding balance, as loaded
// from the backend when the party was selected.
type OpenDocument struct {
	ID          int64
	Number      string
	Outstanding int64
}

// Entry is one manual allocation row with a positive amount.
type Entry struct {
	TargetDocumentID int64
	Amount           int64
}

// Planner holds allocation state for the currently selected party. When auto
// mode is on, no manual state is kept and the outbound request omits the
// allocations field entirely; the backend then applies oldest-first.
type Planner struct {
	partyID int64
	auto    bool
	amounts map[int64]int64
	order   []int64
}

// NewPlanner starts in auto-allocate mode with no party selected.
func NewPlanner() *Planner {
	return &Planner{auto: true, amounts: make(map[int64]int64)}
}

// Auto reports whether auto-allocation is on.
func (p *Planner) Auto() bool { return p.auto }

// SetAutoAllocate toggles auto mode. Turning it on clears all manual entries.
func (p *Planner) SetAutoAllocate(on bool) {
	p.auto = on
	if on {
		p.clear()
	}
}

// ResetForParty clears all allocation state; called whenever the selected
// supplier or customer changes.
func (p *Planner) ResetForParty(partyID int64) {
	p.partyID = partyID
	p.clear()
}

func (p *Planner) clear() {
	p.amounts = make(map[int64]int64)
	p.order = nil
}

// UpdateAllocation sets the manual amount for one document, clamping at zero.
// It deliberately does not clamp to the document's outstanding balance; that
// check is deferred to Validate so the row can be flagged instead of silently
// rewritten under the user.
func (p *Planner) UpdateAllocation(documentID, amount int64) {
	if p.auto {
		return
	}
	if amount < 0 {
		amount = 0
	}
	if _, seen := p.amounts[documentID]; !seen {
		p.order = append(p.order, documentID)
	}
	p.amounts[documentID] = amount
}

// Amount returns the manual amount entered for a document.
func (p *Planner) Amount(documentID int64) int64 {
	return p.amounts[documentID]
}

// Flagged returns the ids of documents whose entered amount exceeds their
// outstanding balance. These rows are highlighted, not blocked.
func (p *Planner) Flagged(docs []OpenDocument) []int64 {
	var out []int64
	for _, d := range docs {
		if p.amounts[d.ID] > d.Outstanding {
			out = append(out, d.ID)
		}
	}
	return out
}

// Entries returns the rows with amount > 0 in entry order. Zero-amount rows
// mean "no allocation" and are dropped before serialisation.
func (p *Planner) Entries() []Entry {
	var out []Entry
	for _, id := range p.order {
		if amt := p.amounts[id]; amt > 0 {
			out = append(out, Entry{TargetDocumentID: id, Amount: amt})
		}
	}
	return out
}

// Requests serialises the positive entries into the outbound request shape.
// Returns nil in auto mode so the field is omitted from the payload.
func (p *Planner) Requests() []api.AllocationRequest {
	if p.auto {
		return nil
	}
	entries := p.Entries()
	if len(entries) == 0 {
		return nil
	}
	out := make([]api.AllocationRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.AllocationRequest{TargetTransactionID: e.TargetDocumentID, Amount: e.Amount})
	}
	return out
}

// Validate checks the manual entries against the open documents and the
// payment total. Auto mode always validates.
func (p *Planner) Validate(totalAmount int64, docs []OpenDocument) error {
	if p.auto {
		return nil
	}
	return ValidateManualAllocations(p.Entries(), totalAmount, docs)
}

// ValidateManualAllocations enforces the two reconciliation invariants: each
// entry stays within its document's outstanding balance, and the sum of all
// entries stays within the payment total.
func ValidateManualAllocations(entries []Entry, totalAmount int64, docs []OpenDocument) error {
	outstanding := make(map[int64]int64, len(docs))
	for _, d := range docs {
		outstanding[d.ID] = d.Outstanding
	}
	var sum int64
	for _, e := range entries {
		remaining, ok := outstanding[e.TargetDocumentID]
		if !ok {
			return fmt.Errorf("%w: document %d", ErrUnknownDocument, e.TargetDocumentID)
		}
		if e.Amount > remaining {
			return fmt.Errorf("%w: document %d has %d outstanding, %d entered",
				ErrEntryExceedsOutstanding, e.TargetDocumentID, remaining, e.Amount)
		}
		sum += e.Amount
	}
	if sum > totalAmount {
		return fmt.Errorf("%w: %d allocated of %d", ErrSumExceedsTotal, sum, totalAmount)
	}
	return nil
}
