package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/transflow/transflow/internal/allocation"
	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/draft"
	"github.com/transflow/transflow/internal/gate"
	"github.com/transflow/transflow/internal/posting"
)

// draftFile is the on-disk shape the draft command consumes.
type draftFile struct {
	Kind            api.TransactionKind `json:"kind"`
	PartyID         int64               `json:"party_id"`
	Date            time.Time           `json:"date"`
	DeliveryType    api.DeliveryType    `json:"delivery_type"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryFee     int64               `json:"delivery_fee"`
	Notes           string              `json:"notes"`
	Amount          int64               `json:"amount"`
	FromAccountID   int64               `json:"from_account_id"`
	ToAccountID     int64               `json:"to_account_id"`
	SourceID        int64               `json:"source_transaction_id"`
	Lines           []draftFileLine     `json:"lines"`
	AutoAllocate    *bool               `json:"auto_allocate"`
	Allocations     []draftFileAlloc    `json:"allocations"`
	Post            *draftFilePost      `json:"post"`
}

type draftFileLine struct {
	ProductID      int64              `json:"product_id"`
	VariantID      int64              `json:"variant_id"`
	Quantity       int64              `json:"quantity"`
	UnitAmount     int64              `json:"unit_amount"`
	DiscountAmount int64              `json:"discount_amount"`
	Direction      api.StockDirection `json:"direction"`
	Reason         string             `json:"reason"`
}

type draftFileAlloc struct {
	Target int64 `json:"target"`
	Amount int64 `json:"amount"`
}

type draftFilePost struct {
	AccountID int64 `json:"account_id"`
	Amount    int64 `json:"amount"`
}

func (a *App) runDraft(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	fs.SetOutput(a.out)
	file := fs.String("file", "", "path to draft JSON")
	confirm := fs.Bool("post", false, "post immediately after the draft is created")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("draft: -file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("draft: read file: %w", err)
	}
	var df draftFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return fmt.Errorf("draft: parse file: %w", err)
	}
	if df.Date.IsZero() {
		df.Date = time.Now()
	}

	if err := a.composeAndSubmit(ctx, df, *confirm); err != nil {
		a.reportFailure(err)
		return err
	}
	return nil
}

// composeAndSubmit runs the full client workflow: build line state, plan
// allocations, validate, then draft and optionally post.
func (a *App) composeAndSubmit(ctx context.Context, df draftFile, confirm bool) error {
	header := gate.Header{
		Kind:            df.Kind,
		PartyID:         df.PartyID,
		Date:            df.Date,
		DeliveryType:    df.DeliveryType,
		DeliveryAddress: df.DeliveryAddress,
		DeliveryFee:     df.DeliveryFee,
		Notes:           df.Notes,
		Amount:          df.Amount,
		FromAccountID:   df.FromAccountID,
		ToAccountID:     df.ToAccountID,
	}

	builder, err := a.buildLines(ctx, df)
	if err != nil {
		return err
	}

	planner := allocation.NewPlanner()
	planner.ResetForParty(df.PartyID)
	manual := df.AutoAllocate != nil && !*df.AutoAllocate
	var openDocs []allocation.OpenDocument
	if manual {
		planner.SetAutoAllocate(false)
		for _, al := range df.Allocations {
			planner.UpdateAllocation(al.Target, al.Amount)
		}
		docs, err := a.openDocsFor(ctx, df)
		if err != nil {
			return err
		}
		openDocs = docs
		// Same highlighting the allocation rows get while editing.
		for _, id := range planner.Flagged(openDocs) {
			fmt.Fprintf(a.out, "warning: allocation against document %d exceeds its outstanding balance\n", id)
		}
	}

	var allocInput *gate.AllocationInput
	if manual {
		allocInput = &gate.AllocationInput{
			Manual:        true,
			Entries:       planner.Entries(),
			TotalAmount:   a.paymentTotal(df, builder),
			OpenDocuments: openDocs,
		}
	}

	catalog := func(productID, variantID int64) (api.Variant, bool) {
		return a.cache.Variant(ctx, productID, variantID)
	}
	var lines []draft.Line
	if builder != nil {
		lines = builder.Lines()
	}
	if err := gate.Validate(header, lines, allocInput, catalog); err != nil {
		return err
	}

	a.warnLowStock(ctx, df.Kind, lines)

	req := api.DraftRequest{
		PartyID:         df.PartyID,
		Date:            df.Date,
		DeliveryType:    df.DeliveryType,
		DeliveryAddress: df.DeliveryAddress,
		DeliveryFee:     df.DeliveryFee,
		Notes:           df.Notes,
		Amount:          df.Amount,
		FromAccountID:   df.FromAccountID,
		ToAccountID:     df.ToAccountID,
		SourceID:        df.SourceID,
		Allocations:     planner.Requests(),
	}
	if builder != nil {
		req.Lines = builder.Snapshot()
		agg := builder.Aggregates(df.DeliveryFee)
		fmt.Fprintf(a.out, "client estimate: subtotal %s, discount %s, total %s\n",
			a.amount(agg.Subtotal), a.amount(agg.TotalDiscount), a.amount(agg.TotalAmount))
	}

	orch := posting.NewOrchestrator(a.api, df.Kind, a.logger)
	created, err := orch.Submit(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "draft %s created (id %d), server total %s\n",
		created.Number, created.ID, a.amount(created.TotalAmount))

	if !confirm && df.Post == nil {
		return nil
	}
	var postReq api.PostRequest
	if df.Post != nil {
		postReq.Payment = &api.PaymentInstruction{AccountID: df.Post.AccountID, Amount: df.Post.Amount}
	}
	postReq.Allocations = planner.Requests()
	posted, err := orch.ConfirmPost(ctx, postReq)
	if err != nil {
		return err
	}
	handoff, err := orch.Handoff()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "posted %s (id %d)\n", posted.Number, posted.ID)
	return a.renderDetail(ctx, handoff)
}

// buildLines feeds the file's rows through the line item builder so the same
// edit-boundary clamping applies as in the form controls. Returns nil for
// flows without line items.
func (a *App) buildLines(ctx context.Context, df draftFile) (*draft.Builder, error) {
	switch df.Kind {
	case api.KindPurchase, api.KindSale, api.KindSupplierReturn, api.KindCustomerReturn, api.KindAdjustment:
	default:
		return nil, nil
	}

	returnable := map[int64]int64{}
	if df.SourceID != 0 {
		src, err := a.api.GetTransaction(ctx, df.SourceID)
		if err != nil {
			return nil, err
		}
		for _, l := range src.Lines {
			returnable[l.VariantID] = l.ReturnableQty
		}
	}

	b := draft.NewBuilder()
	for i, fl := range df.Lines {
		localID := b.Lines()[0].LocalID
		if i > 0 {
			localID = b.AddLine()
		}
		patch := draft.LinePatch{
			ProductID:      &fl.ProductID,
			VariantID:      &fl.VariantID,
			Quantity:       &fl.Quantity,
			UnitAmount:     &fl.UnitAmount,
			DiscountAmount: &fl.DiscountAmount,
		}
		if fl.Direction != "" {
			patch.Direction = &fl.Direction
		}
		if fl.Reason != "" {
			patch.Reason = &fl.Reason
		}
		if qty, ok := returnable[fl.VariantID]; ok {
			patch.ReturnableQty = &qty
		}
		if err := b.UpdateLine(localID, patch); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (a *App) openDocsFor(ctx context.Context, df draftFile) ([]allocation.OpenDocument, error) {
	kind := api.PartySupplier
	switch df.Kind {
	case api.KindCustomerPayment, api.KindCustomerReturn:
		kind = api.PartyCustomer
	}
	pc, err := a.cache.PartyContext(ctx, kind, df.PartyID)
	if err != nil {
		return nil, err
	}
	return pc.OpenDocuments, nil
}

// paymentTotal is the amount manual allocations must reconcile against.
func (a *App) paymentTotal(df draftFile, b *draft.Builder) int64 {
	if b != nil {
		return b.Aggregates(df.DeliveryFee).TotalAmount
	}
	return df.Amount
}

// warnLowStock prints soft warnings for outbound lines exceeding the cached
// stock snapshot. Never blocks submission; the backend is authoritative.
func (a *App) warnLowStock(ctx context.Context, kind api.TransactionKind, lines []draft.Line) {
	if kind != api.KindSale && kind != api.KindAdjustment {
		return
	}
	for _, l := range lines {
		if kind == api.KindAdjustment && l.Direction != api.DirectionOut {
			continue
		}
		v, ok := a.cache.Variant(ctx, l.ProductID, l.VariantID)
		if ok && l.Quantity > v.CurrentStock {
			fmt.Fprintf(a.out, "warning: line for variant %d asks for %d, snapshot shows %d in stock\n",
				l.VariantID, l.Quantity, v.CurrentStock)
		}
	}
}
