package configedit

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/elpatio/backoffice/internal/configfield"
)

// paymentTypes is the order the backend groups payment configuration in.
var paymentTypes = []string{
	configfield.TypePrices,
	configfield.TypeLimits,
	configfield.TypeCommissions,
	configfield.TypeCurrency,
}

// FlattenPaymentConfig walks the nested payment configuration document and
// produces one editor field per leaf value, keyed by dotted path within its
// group. Unknown top-level groups are ignored.
func FlattenPaymentConfig(raw []byte) ([]Field, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("configedit: payment config is not an object")
	}

	var fields []Field
	for _, configType := range paymentTypes {
		group := doc.Get(configType)
		if !group.Exists() {
			continue
		}
		collectLeaves(configType, "", group, &fields)
	}
	return fields, nil
}

func collectLeaves(configType, prefix string, node gjson.Result, out *[]Field) {
	if !node.IsObject() {
		*out = append(*out, Field{
			Type:  configType,
			Key:   prefix,
			Class: configfield.Classify(configType, prefix),
			Value: node.Value(),
		})
		return
	}
	node.ForEach(func(key, value gjson.Result) bool {
		path := key.String()
		if prefix != "" {
			path = prefix + "." + path
		}
		collectLeaves(configType, path, value, out)
		return true
	})
}
