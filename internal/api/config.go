package api

import (
	"context"
	"encoding/json"
	"net/url"
)

// Configs lists the general system settings.
func (c *Client) Configs(ctx context.Context) ([]ConfigEntry, error) {
	var decoded struct {
		OK      bool          `json:"ok"`
		Configs []ConfigEntry `json:"configuraciones"`
	}
	if err := c.get(ctx, "/api/config", nil, &decoded); err != nil {
		return nil, err
	}
	return decoded.Configs, nil
}

// Config fetches a single general setting by key.
func (c *Client) Config(ctx context.Context, key string) (ConfigEntry, error) {
	var entry ConfigEntry
	if err := c.get(ctx, "/api/config/"+url.PathEscape(key), nil, &entry); err != nil {
		return ConfigEntry{}, err
	}
	return entry, nil
}

// UpdateConfig writes a new value for a general setting.
func (c *Client) UpdateConfig(ctx context.Context, key string, value interface{}) error {
	body := map[string]interface{}{"valor": value}
	return c.put(ctx, "/api/config/"+url.PathEscape(key), body, nil)
}

// PaymentConfig fetches the payments configuration namespace. The payload is
// a nested object grouped by config type ("precios", "limites", "comisiones",
// "moneda"); the raw form is returned so callers can flatten it.
func (c *Client) PaymentConfig(ctx context.Context) (json.RawMessage, error) {
	var decoded struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, "/api/payment-config", nil, &decoded); err != nil {
		return nil, err
	}
	return decoded.Data, nil
}

// UpdatePaymentConfig writes one payments configuration value. The value must
// already be in wire representation (minor currency units for monetary keys).
func (c *Client) UpdatePaymentConfig(ctx context.Context, configType, configKey string, value interface{}) error {
	body := map[string]interface{}{
		"configType":  configType,
		"configKey":   configKey,
		"configValue": value,
	}
	return c.put(ctx, "/api/payment-config", body, nil)
}
