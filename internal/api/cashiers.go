package api

import (
	"context"
	"net/url"
)

// Cashiers lists cashier accounts.
func (c *Client) Cashiers(ctx context.Context) ([]Cashier, error) {
	var cashiers []Cashier
	if err := c.get(ctx, "/api/admin/cajeros", nil, &cashiers); err != nil {
		return nil, err
	}
	return cashiers, nil
}

// CreateCashier registers a new cashier.
func (c *Client) CreateCashier(ctx context.Context, cashier NewCashier) (Cashier, error) {
	var created struct {
		Cashier Cashier `json:"cajero"`
	}
	if err := c.post(ctx, "/api/admin/cajeros", cashier, &created); err != nil {
		return Cashier{}, err
	}
	return created.Cashier, nil
}

// UpdateCashier updates mutable fields on a cashier.
func (c *Client) UpdateCashier(ctx context.Context, id string, fields map[string]interface{}) (Cashier, error) {
	var updated struct {
		Cashier Cashier `json:"cajero"`
	}
	if err := c.put(ctx, "/api/admin/cajeros/"+url.PathEscape(id), fields, &updated); err != nil {
		return Cashier{}, err
	}
	return updated.Cashier, nil
}

// DeleteCashier removes a cashier account.
func (c *Client) DeleteCashier(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/admin/cajeros/"+url.PathEscape(id))
}
