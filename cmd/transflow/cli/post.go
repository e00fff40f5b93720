package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/transflow/transflow/internal/api"
)

func (a *App) runPost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(a.out)
	accountID := fs.Int64("account", 0, "payment account for an immediate payment")
	payAmount := fs.Int64("amount", 0, "immediate payment amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}

	// Resuming a draft from a previous invocation: confirm it still is one.
	t, err := a.api.GetTransaction(ctx, id)
	if err != nil {
		a.reportFailure(err)
		return err
	}
	if t.Status != api.StatusDraft {
		return fmt.Errorf("post: transaction %d is %s, only drafts can be posted", id, t.Status)
	}

	var req api.PostRequest
	if *accountID != 0 || *payAmount != 0 {
		req.Payment = &api.PaymentInstruction{AccountID: *accountID, Amount: *payAmount}
	}
	posted, err := a.api.PostTransaction(ctx, id, req, uuid.NewString())
	if err != nil {
		a.reportFailure(err)
		return err
	}
	fmt.Fprintf(a.out, "posted %s (id %d)\n", posted.Number, posted.ID)
	a.renderTransaction(posted)
	return nil
}

func (a *App) runDiscard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("discard: expected <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return fmt.Errorf("discard: %w", err)
	}
	t, err := a.api.GetTransaction(ctx, id)
	if err != nil {
		a.reportFailure(err)
		return err
	}
	if t.Status != api.StatusDraft {
		return fmt.Errorf("discard: transaction %d is %s, only drafts can be deleted", id, t.Status)
	}
	if err := a.api.DeleteTransaction(ctx, id, uuid.NewString()); err != nil {
		a.reportFailure(err)
		return err
	}
	fmt.Fprintf(a.out, "draft %d discarded\n", id)
	return nil
}

func parseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("transaction id required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}
