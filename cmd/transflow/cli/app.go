// Package cli implements the transflow subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/app"
	"github.com/transflow/transflow/internal/gate"
	"github.com/transflow/transflow/internal/lookup"
)

const usage = `usage: transflow <command> [flags]

commands:
  list     list suppliers, customers, products, accounts or transactions
  show     show one entity by id
  draft    build and create a transaction draft from a JSON file
  post     post a previously created draft
  discard  delete a draft
`

// App wires the subcommands to the API client and lookup cache.
type App struct {
	cfg     *app.Config
	logger  *slog.Logger
	api     *api.Client
	cache   *lookup.Cache
	out     io.Writer
	in      io.Reader
	printer *message.Printer
}

// NewApp constructs the CLI application.
func NewApp(cfg *app.Config, logger *slog.Logger, client *api.Client, cache *lookup.Cache, out io.Writer, in io.Reader) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		api:     client,
		cache:   cache,
		out:     out,
		in:      in,
		printer: message.NewPrinter(language.English),
	}
}

// Run dispatches a subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "list":
		return a.runList(ctx, args[1:])
	case "show":
		return a.runShow(ctx, args[1:])
	case "draft":
		return a.runDraft(ctx, args[1:])
	case "post":
		return a.runPost(ctx, args[1:])
	case "discard":
		return a.runDiscard(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// amount renders a whole-currency-unit integer with digit grouping.
func (a *App) amount(v int64) string {
	return a.printer.Sprintf("%d", v)
}

// reportFailure prints a failure the way the dashboard surfaces it: field
// errors inline when the backend sent them, one banner line otherwise.
func (a *App) reportFailure(err error) {
	var gateErr *gate.ValidationError
	if errors.As(err, &gateErr) {
		fmt.Fprintln(a.out, "draft is not valid:")
		for _, f := range gateErr.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
		}
		return
	}
	if apiErr, ok := api.AsError(err); ok {
		switch {
		case apiErr.IsFieldValidation():
			fmt.Fprintln(a.out, "the backend rejected the request:")
			for _, f := range apiErr.Fields {
				fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
			}
		case apiErr.IsNotFound():
			fmt.Fprintln(a.out, "not found")
		default:
			fmt.Fprintln(a.out, apiErr.UserMessage())
		}
		return
	}
	fmt.Fprintln(a.out, api.DefaultFailureMessage)
}
