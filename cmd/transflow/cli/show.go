package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/nav"
)

func (a *App) runShow(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("show: expected <entity> <id>")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("show: bad id %q", args[1])
	}
	payload := nav.Payload{Entity: nav.Entity(args[0]), ID: id}
	if err := a.renderDetail(ctx, payload); err != nil {
		a.reportFailure(err)
		return err
	}
	return nil
}

// renderDetail is the detail view; it receives the target explicitly instead
// of reading a shared "last viewed id" slot.
func (a *App) renderDetail(ctx context.Context, p nav.Payload) error {
	switch p.Entity {
	case nav.EntitySupplier, nav.EntityCustomer:
		kind := api.PartySupplier
		if p.Entity == nav.EntityCustomer {
			kind = api.PartyCustomer
		}
		pc, err := a.cache.PartyContext(ctx, kind, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %d\n", p.Entity, p.ID)
		fmt.Fprintf(a.out, "balance: %s (as of %s)\n", a.amount(pc.Balance.CurrentBalance), pc.Balance.TakenAt.Format("15:04:05"))
		if len(pc.OpenDocuments) == 0 {
			fmt.Fprintln(a.out, "no open documents")
			return nil
		}
		fmt.Fprintln(a.out, "open documents:")
		for _, d := range pc.OpenDocuments {
			fmt.Fprintf(a.out, "  %6d  %-14s  outstanding %s\n", d.ID, d.Number, a.amount(d.Outstanding))
		}
	case nav.EntityProduct:
		snap, err := a.cache.Stock(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "product %d stock by variant:\n", p.ID)
		for _, v := range snap.Variants {
			state := "active"
			if !v.Active {
				state = "inactive"
			}
			fmt.Fprintf(a.out, "  %6d  %-10s  %6d in stock  (%s)\n", v.VariantID, v.Size, v.CurrentStock, state)
		}
	case nav.EntityTransaction:
		t, err := a.api.GetTransaction(ctx, p.ID)
		if err != nil {
			return err
		}
		a.renderTransaction(t)
	default:
		return fmt.Errorf("show: unknown entity %q", p.Entity)
	}
	return nil
}

func (a *App) renderTransaction(t *api.Transaction) {
	fmt.Fprintf(a.out, "%s %s (%s) %s\n", t.Kind, t.Number, t.Status, t.Date.Format("2006-01-02"))
	for _, l := range t.Lines {
		fmt.Fprintf(a.out, "  product %d variant %d: %d x %s - %s = %s\n",
			l.ProductID, l.VariantID, l.Quantity, a.amount(l.UnitAmount), a.amount(l.DiscountAmount), a.amount(l.Total))
	}
	fmt.Fprintf(a.out, "subtotal %s, discount %s, total %s, outstanding %s\n",
		a.amount(t.Subtotal), a.amount(t.TotalDiscount), a.amount(t.TotalAmount), a.amount(t.Outstanding))
}
