package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// Transactions fetches the filtered, paginated admin transaction listing.
func (c *Client) Transactions(ctx context.Context, filters TransactionFilters) (TransactionPage, error) {
	query := url.Values{}
	if filters.Type != "" {
		query.Set("tipo", filters.Type)
	}
	if filters.Category != "" {
		query.Set("categoria", filters.Category)
	}
	if filters.Status != "" {
		query.Set("estado", filters.Status)
	}
	if filters.From != "" {
		query.Set("fechaInicio", filters.From)
	}
	if filters.To != "" {
		query.Set("fechaFin", filters.To)
	}
	if filters.Page > 0 {
		query.Set("pagina", strconv.Itoa(filters.Page))
	}
	if filters.Limit > 0 {
		query.Set("limite", strconv.Itoa(filters.Limit))
	}

	var page TransactionPage
	if err := c.get(ctx, "/api/transacciones/admin/todas", query, &page); err != nil {
		return TransactionPage{}, err
	}
	return page, nil
}

// InProgressTransactions fetches the currently active transactions, newest
// first, capped at limit. An empty category means all categories.
func (c *Client) InProgressTransactions(ctx context.Context, limit int, category string) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := url.Values{}
	query.Set("limite", strconv.Itoa(limit))
	if category != "" {
		query.Set("categoria", category)
	}

	var decoded struct {
		Transactions []Transaction `json:"transacciones"`
	}
	if err := c.get(ctx, "/api/transacciones/admin/en-curso", query, &decoded); err != nil {
		return nil, err
	}
	return decoded.Transactions, nil
}

// SystemStatistics fetches the transaction-system statistics, optionally
// bounded by dates. The shape is backend-owned, so it is returned raw.
func (c *Client) SystemStatistics(ctx context.Context, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	if from != "" {
		query.Set("fechaInicio", from)
	}
	if to != "" {
		query.Set("fechaFin", to)
	}

	var raw json.RawMessage
	if err := c.get(ctx, "/api/transacciones/admin/estadisticas-sistema", query, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// TransactionDetails fetches one transaction by ID.
func (c *Client) TransactionDetails(ctx context.Context, id string) (Transaction, error) {
	var tx Transaction
	if err := c.get(ctx, "/api/transacciones/"+url.PathEscape(id), nil, &tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
