package api

import (
	"net/url"
	"strconv"
)

// SortOrder for list endpoints.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListParams carries the pagination, filter and sort query parameters every
// collection endpoint understands. Zero values are omitted from the query.
type ListParams struct {
	Page       int
	Limit      int
	Status     string
	Search     string
	Type       string
	Category   string
	SupplierID int64
	CustomerID int64
	ProductID  int64
	AccountID  int64
	OpenOnly   bool
	SortBy     string
	SortOrder  SortOrder
}

// Values encodes the params as a URL query.
func (p ListParams) Values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.SupplierID > 0 {
		q.Set("supplierId", strconv.FormatInt(p.SupplierID, 10))
	}
	if p.CustomerID > 0 {
		q.Set("customerId", strconv.FormatInt(p.CustomerID, 10))
	}
	if p.ProductID > 0 {
		q.Set("productId", strconv.FormatInt(p.ProductID, 10))
	}
	if p.AccountID > 0 {
		q.Set("accountId", strconv.FormatInt(p.AccountID, 10))
	}
	if p.OpenOnly {
		q.Set("open", "true")
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
		if p.SortOrder != "" {
			q.Set("sortOrder", string(p.SortOrder))
		}
	}
	return q
}
