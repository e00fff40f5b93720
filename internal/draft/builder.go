// Package draft holds the line-item state for a transaction being composed.
package draft

import (
	"errors"

	"github.com/google/uuid"

	"github.com/transflow/transflow/internal/api"
)

// ErrUnknownLine indicates a patch or removal against a line id that does not exist.
var ErrUnknownLine = errors.New("draft: unknown line id")

// Line is one editable row of the draft. LocalID is client generated and
// stable across edits; it never leaves the client.
type Line struct {
	LocalID        string
	ProductID      int64
	VariantID      int64
	Quantity       int64
	UnitAmount     int64
	DiscountAmount int64
	Direction      api.StockDirection
	Reason         string
	// ReturnableQty is recorded at lookup time for return flows and checked
	// against the entered quantity before submission.
	ReturnableQty int64
}

// LinePatch merges into a line; nil fields are untouched. Values are clamped
// at the edit boundary the same way the form controls clamp them: quantity
// and unit amount cannot go below 1, discount cannot go below 0. Cross-field
// rules are not re-checked here; that happens at submission.
type LinePatch struct {
	ProductID      *int64
	VariantID      *int64
	Quantity       *int64
	UnitAmount     *int64
	DiscountAmount *int64
	Direction      *api.StockDirection
	Reason         *string
	ReturnableQty  *int64
}

// Aggregates are the client-side totals shown while editing.
type Aggregates struct {
	Subtotal      int64
	TotalDiscount int64
	TotalAmount   int64
}

// Builder owns an ordered list of draft lines. At least one line always
// remains; a new builder starts with a single default row.
type Builder struct {
	lines []Line
}

// NewBuilder returns a builder seeded with one default line.
func NewBuilder() *Builder {
	b := &Builder{}
	b.AddLine()
	return b
}

func defaultLine() Line {
	return Line{
		LocalID:    uuid.NewString(),
		Quantity:   1,
		UnitAmount: 1,
	}
}

// AddLine appends a line with defaults and returns its local id.
func (b *Builder) AddLine() string {
	l := defaultLine()
	b.lines = append(b.lines, l)
	return l.LocalID
}

// UpdateLine merges patch into the line with the given local id.
func (b *Builder) UpdateLine(localID string, patch LinePatch) error {
	for i := range b.lines {
		if b.lines[i].LocalID != localID {
			continue
		}
		l := &b.lines[i]
		if patch.ProductID != nil {
			l.ProductID = *patch.ProductID
			// A product change invalidates the variant selection.
			l.VariantID = 0
		}
		if patch.VariantID != nil {
			l.VariantID = *patch.VariantID
		}
		if patch.Quantity != nil {
			l.Quantity = max64(*patch.Quantity, 1)
		}
		if patch.UnitAmount != nil {
			l.UnitAmount = max64(*patch.UnitAmount, 1)
		}
		if patch.DiscountAmount != nil {
			l.DiscountAmount = max64(*patch.DiscountAmount, 0)
		}
		if patch.Direction != nil {
			l.Direction = *patch.Direction
		}
		if patch.Reason != nil {
			l.Reason = *patch.Reason
		}
		if patch.ReturnableQty != nil {
			l.ReturnableQty = *patch.ReturnableQty
		}
		return nil
	}
	return ErrUnknownLine
}

// RemoveLine deletes the line unless it is the last one remaining, in which
// case the call is a no-op and false is returned.
func (b *Builder) RemoveLine(localID string) (bool, error) {
	if len(b.lines) <= 1 {
		return false, nil
	}
	for i := range b.lines {
		if b.lines[i].LocalID == localID {
			b.lines = append(b.lines[:i], b.lines[i+1:]...)
			return true, nil
		}
	}
	return false, ErrUnknownLine
}

// Len returns the current number of lines.
func (b *Builder) Len() int { return len(b.lines) }

// Lines returns a copy of the lines in insertion order.
func (b *Builder) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Line returns the line with the given local id.
func (b *Builder) Line(localID string) (Line, error) {
	for _, l := range b.lines {
		if l.LocalID == localID {
			return l, nil
		}
	}
	return Line{}, ErrUnknownLine
}

// LineTotal computes one line's total, flooring at zero: a discount larger
// than the gross amount caps the line at 0, it never goes negative.
func LineTotal(l Line) int64 {
	return max64(l.Quantity*l.UnitAmount-l.DiscountAmount, 0)
}

// ComputeAggregates sums line totals and discounts. A negative delivery fee
// is treated as zero and never reduces the total.
func ComputeAggregates(lines []Line, deliveryFee int64) Aggregates {
	var agg Aggregates
	for _, l := range lines {
		agg.Subtotal += LineTotal(l)
		agg.TotalDiscount += max64(l.DiscountAmount, 0)
	}
	agg.TotalAmount = agg.Subtotal + max64(deliveryFee, 0)
	return agg
}

// Aggregates computes totals over the builder's current lines.
func (b *Builder) Aggregates(deliveryFee int64) Aggregates {
	return ComputeAggregates(b.lines, deliveryFee)
}

// Snapshot serialises the current lines into the outbound request shape.
func (b *Builder) Snapshot() []api.DraftLineRequest {
	out := make([]api.DraftLineRequest, 0, len(b.lines))
	for _, l := range b.lines {
		out = append(out, api.DraftLineRequest{
			ProductID:      l.ProductID,
			VariantID:      l.VariantID,
			Quantity:       l.Quantity,
			UnitAmount:     l.UnitAmount,
			DiscountAmount: l.DiscountAmount,
			Direction:      l.Direction,
			Reason:         l.Reason,
		})
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
