package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/search"
)

func (a *App) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.out)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	status := fs.String("status", "", "filter by status")
	searchTerm := fs.String("search", "", "free-text search")
	typ := fs.String("type", "", "filter by transaction type")
	category := fs.String("category", "", "filter by product category")
	sortBy := fs.String("sort", "", "sort field")
	order := fs.String("order", "asc", "sort order (asc|desc)")
	interactive := fs.Bool("interactive", false, "read search terms from stdin, debounced")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entity := fs.Arg(0)
	if entity == "" {
		return fmt.Errorf("list: entity required (suppliers|customers|products|accounts|transactions)")
	}

	params := api.ListParams{
		Page:     *page,
		Limit:    *limit,
		Status:   *status,
		Search:   *searchTerm,
		Type:     *typ,
		Category: *category,
		SortBy:   *sortBy,
	}
	if *sortBy != "" && *order == "desc" {
		params.SortOrder = api.SortDesc
	} else if *sortBy != "" {
		params.SortOrder = api.SortAsc
	}

	if *interactive {
		return a.interactiveSearch(ctx, entity, params)
	}
	if err := a.renderList(ctx, entity, params); err != nil {
		a.reportFailure(err)
		return err
	}
	return nil
}

// interactiveSearch re-runs the listing as search terms arrive on stdin.
// Each term resets the debounce window and cancels the superseded fetch.
func (a *App) interactiveSearch(ctx context.Context, entity string, params api.ListParams) error {
	deb := search.NewDebouncer(a.cfg.SearchDebounce)
	defer deb.Stop()

	fmt.Fprintln(a.out, "type to search, one term per line (ctrl-d to quit):")
	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		p := params
		p.Search = term
		p.Page = 1
		deb.Trigger(ctx, func(ctx context.Context) {
			if err := a.renderList(ctx, entity, p); err != nil && ctx.Err() == nil {
				a.reportFailure(err)
			}
		})
	}
	// Let a pending debounced fetch drain before returning.
	deb.Wait()
	return scanner.Err()
}

func (a *App) renderList(ctx context.Context, entity string, params api.ListParams) error {
	switch entity {
	case "suppliers":
		rows, meta, err := a.api.ListSuppliers(ctx, params)
		if err != nil {
			return err
		}
		for _, s := range rows {
			fmt.Fprintf(a.out, "%6d  %-30s  %-12s  %s\n", s.ID, s.Name, s.Status, a.amount(s.Balance))
		}
		a.renderMeta(meta)
	case "customers":
		rows, meta, err := a.api.ListCustomers(ctx, params)
		if err != nil {
			return err
		}
		for _, c := range rows {
			fmt.Fprintf(a.out, "%6d  %-30s  %-12s  %s\n", c.ID, c.Name, c.Status, a.amount(c.Balance))
		}
		a.renderMeta(meta)
	case "products":
		rows, meta, err := a.api.ListProducts(ctx, params)
		if err != nil {
			return err
		}
		for _, p := range rows {
			fmt.Fprintf(a.out, "%6d  %-14s  %-30s  %-12s  %d variants\n", p.ID, p.SKU, p.Name, p.Status, len(p.Variants))
		}
		a.renderMeta(meta)
	case "accounts":
		rows, meta, err := a.api.ListAccounts(ctx, params)
		if err != nil {
			return err
		}
		for _, acc := range rows {
			fmt.Fprintf(a.out, "%6d  %-30s  %-10s  %s\n", acc.ID, acc.Name, acc.Type, a.amount(acc.Balance))
		}
		a.renderMeta(meta)
	case "transactions":
		rows, meta, err := a.api.ListTransactions(ctx, params)
		if err != nil {
			return err
		}
		for _, t := range rows {
			fmt.Fprintf(a.out, "%6d  %-14s  %-18s  %-8s  %10s  due %s\n",
				t.ID, t.Number, t.Kind, t.Status, a.amount(t.TotalAmount), a.amount(t.Outstanding))
		}
		a.renderMeta(meta)
	default:
		return fmt.Errorf("list: unknown entity %q", entity)
	}
	return nil
}

func (a *App) renderMeta(meta api.ListMeta) {
	fmt.Fprintf(a.out, "page %d of %d (%d total)\n", meta.Page, meta.TotalPages, meta.Total)
}
