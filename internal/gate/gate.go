// Package gate runs the client-side pre-submission checks. The gate is
// advisory: the backend re-validates everything independently and remains
// the sole source of truth. Its only job is to catch obviously invalid
// input before a round-trip is spent on it.
package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/transflow/transflow/internal/allocation"
	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/draft"
)

// FieldError is one client-side validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates the failures found in one gate run.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "gate: validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "gate: " + strings.Join(parts, "; ")
}

// Header carries the non-line fields of the transaction being composed.
type Header struct {
	Kind            api.TransactionKind `validate:"required"`
	PartyID         int64
	Date            time.Time           `validate:"required"`
	DeliveryType    api.DeliveryType
	DeliveryAddress string              `validate:"required_if=Kind sale DeliveryType home-delivery,max=500"`
	DeliveryFee     int64               `validate:"gte=0"`
	Notes           string              `validate:"max=1000"`
	// Amount is the payment or transfer total for non-line flows.
	Amount        int64
	FromAccountID int64
	ToAccountID   int64
}

// AllocationInput is the optional manual-allocation state for payment and
// return flows.
type AllocationInput struct {
	Manual        bool
	Entries       []allocation.Entry
	TotalAmount   int64
	OpenDocuments []allocation.OpenDocument
}

// Catalog resolves a product variant from reference data already fetched.
// A nil catalog skips the active-variant check.
type Catalog func(productID, variantID int64) (api.Variant, bool)

var validate = validator.New(validator.WithRequiredStructEnabled())

var headerFieldNames = map[string]string{
	"Kind":            "kind",
	"Date":            "date",
	"DeliveryAddress": "delivery_address",
	"DeliveryFee":     "delivery_fee",
	"Notes":           "notes",
}

var headerFieldMessages = map[string]string{
	"Kind":            "transaction kind is required",
	"Date":            "transaction date is required",
	"DeliveryAddress": "delivery address is required for home delivery and must stay under 500 characters",
	"DeliveryFee":     "delivery fee cannot be negative",
	"Notes":           "notes must stay under 1000 characters",
}

// lineKinds are the flows composed of product lines.
func lineKind(k api.TransactionKind) bool {
	switch k {
	case api.KindPurchase, api.KindSale, api.KindSupplierReturn, api.KindCustomerReturn, api.KindAdjustment:
		return true
	}
	return false
}

func returnKind(k api.TransactionKind) bool {
	return k == api.KindSupplierReturn || k == api.KindCustomerReturn
}

func partyKind(k api.TransactionKind) bool {
	switch k {
	case api.KindTransfer, api.KindAdjustment:
		return false
	}
	return true
}

// Validate runs every check group in order, short-circuiting on the first
// failure within a group, and returns a *ValidationError listing them all.
// No network call is made here under any circumstance.
func Validate(h Header, lines []draft.Line, alloc *AllocationInput, cat Catalog) error {
	var fields []FieldError

	// Party selection comes first; which flows need one depends on the kind.
	if partyKind(h.Kind) && h.PartyID <= 0 {
		fields = append(fields, FieldError{Field: "party_id", Message: "a supplier or customer must be selected"})
	}
	fields = append(fields, structChecks(h, "Kind", "Date")...)

	if lineKind(h.Kind) {
		fields = append(fields, lineChecks(h.Kind, lines, cat)...)
		if countQualifying(lines) == 0 {
			fields = append(fields, FieldError{Field: "lines", Message: "at least one line item is required"})
		}
	} else {
		if h.Amount <= 0 {
			fields = append(fields, FieldError{Field: "amount", Message: "amount must be at least 1"})
		}
		if h.Kind == api.KindTransfer {
			if h.FromAccountID <= 0 || h.ToAccountID <= 0 {
				fields = append(fields, FieldError{Field: "accounts", Message: "both source and destination accounts must be selected"})
			} else if h.FromAccountID == h.ToAccountID {
				fields = append(fields, FieldError{Field: "accounts", Message: "source and destination accounts must differ"})
			}
		}
	}

	fields = append(fields, structChecks(h, "DeliveryFee", "Notes", "DeliveryAddress")...)

	if alloc != nil && alloc.Manual {
		if err := allocation.ValidateManualAllocations(alloc.Entries, alloc.TotalAmount, alloc.OpenDocuments); err != nil {
			fields = append(fields, FieldError{Field: "allocations", Message: err.Error()})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// structChecks validates the named header fields by tag, keeping the caller's
// ordering and at most one failure per field.
func structChecks(h Header, names ...string) []FieldError {
	err := validate.StructPartial(h, names...)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "header", Message: err.Error()}}
	}
	failed := make(map[string]bool, len(verrs))
	for _, ve := range verrs {
		failed[ve.StructField()] = true
	}
	var out []FieldError
	for _, name := range names {
		if failed[name] {
			out = append(out, FieldError{Field: headerFieldNames[name], Message: headerFieldMessages[name]})
		}
	}
	return out
}

// lineChecks walks each line in order and records the first failing rule per
// line.
func lineChecks(kind api.TransactionKind, lines []draft.Line, cat Catalog) []FieldError {
	var out []FieldError
	for i, l := range lines {
		if fe, ok := checkLine(kind, i, l, cat); !ok {
			out = append(out, fe)
		}
	}
	return out
}

func checkLine(kind api.TransactionKind, idx int, l draft.Line, cat Catalog) (FieldError, bool) {
	name := func(field string) string { return fmt.Sprintf("lines[%d].%s", idx, field) }

	if l.ProductID <= 0 || l.VariantID <= 0 {
		return FieldError{Field: name("product"), Message: "a product and variant must be selected"}, false
	}
	if cat != nil {
		v, ok := cat(l.ProductID, l.VariantID)
		if !ok {
			return FieldError{Field: name("variant"), Message: "selected variant was not found"}, false
		}
		if !v.Active {
			return FieldError{Field: name("variant"), Message: "selected variant is no longer active"}, false
		}
	}
	if l.Quantity < 1 {
		return FieldError{Field: name("quantity"), Message: "quantity must be at least 1"}, false
	}
	if l.UnitAmount < 1 {
		return FieldError{Field: name("unit_amount"), Message: "unit amount must be at least 1"}, false
	}
	if gross := l.Quantity * l.UnitAmount; l.DiscountAmount < 0 || l.DiscountAmount > gross {
		return FieldError{Field: name("discount_amount"), Message: "discount must stay between 0 and the line gross amount"}, false
	}
	if kind == api.KindAdjustment && l.Direction != api.DirectionIn && l.Direction != api.DirectionOut {
		return FieldError{Field: name("direction"), Message: "adjustment lines need a stock direction"}, false
	}
	if returnKind(kind) && l.Quantity > l.ReturnableQty {
		return FieldError{
			Field:   name("quantity"),
			Message: fmt.Sprintf("only %d can still be returned on this line", l.ReturnableQty),
		}, false
	}
	return FieldError{}, true
}

// countQualifying counts lines with a complete product and variant selection.
func countQualifying(lines []draft.Line) int {
	n := 0
	for _, l := range lines {
		if l.ProductID > 0 && l.VariantID > 0 {
			n++
		}
	}
	return n
}
