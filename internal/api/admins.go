package api

import (
	"context"
	"net/url"
)

// Admins lists administrator accounts.
func (c *Client) Admins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	if err := c.get(ctx, "/api/admin/admins", nil, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// CreateAdmin registers a new administrator.
func (c *Client) CreateAdmin(ctx context.Context, admin NewAdmin) (Admin, error) {
	var created struct {
		Admin Admin `json:"admin"`
	}
	if err := c.post(ctx, "/api/admin/admins", admin, &created); err != nil {
		return Admin{}, err
	}
	return created.Admin, nil
}

// UpdateAdmin updates mutable fields on an administrator. Fields are sent as
// a partial document; the backend ignores absent keys.
func (c *Client) UpdateAdmin(ctx context.Context, id string, fields map[string]interface{}) (Admin, error) {
	var updated struct {
		Admin Admin `json:"admin"`
	}
	if err := c.put(ctx, "/api/admin/admins/"+url.PathEscape(id), fields, &updated); err != nil {
		return Admin{}, err
	}
	return updated.Admin, nil
}

// DeleteAdmin removes an administrator account.
func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/admin/admins/"+url.PathEscape(id))
}

// Profile fetches the authenticated admin's own record.
func (c *Client) Profile(ctx context.Context) (Admin, error) {
	var decoded struct {
		Admin Admin `json:"admin"`
	}
	if err := c.get(ctx, "/api/admin/perfil", nil, &decoded); err != nil {
		return Admin{}, err
	}
	return decoded.Admin, nil
}
