package configedit

import (
	"context"

	"github.com/elpatio/backoffice/internal/api"
	"github.com/elpatio/backoffice/internal/configfield"
)

// TypeGeneral is the namespace used for general settings fields. The
// backend addresses these by bare key, so the group exists only inside the
// editor.
const TypeGeneral = "general"

// FieldsFromEntries converts general settings entries into editor fields,
// classifying each from its declared data type and range.
func FieldsFromEntries(entries []api.ConfigEntry) []Field {
	fields := make([]Field, 0, len(entries))
	for _, entry := range entries {
		var min, max *float64
		if entry.ValidRange != nil {
			min, max = entry.ValidRange.Min, entry.ValidRange.Max
		}
		fields = append(fields, Field{
			Type:  TypeGeneral,
			Key:   entry.Key,
			Class: configfield.ClassForEntry(entry.DataType, min, max),
			Value: entry.Value,
		})
	}
	return fields
}

// GeneralConfigUpdater adapts the bare-key general settings endpoint to the
// editor's updater shape.
type GeneralConfigUpdater struct {
	Client *api.Client
}

func (u GeneralConfigUpdater) UpdatePaymentConfig(ctx context.Context, _ string, configKey string, value interface{}) error {
	return u.Client.UpdateConfig(ctx, configKey, value)
}
