package configedit

import (
	"testing"

	"github.com/elpatio/backoffice/internal/configfield"
)

const samplePaymentConfig = `{
	"precios": {
		"torneo": {"entrada": 50000, "reentrada": 25000},
		"sala": {"premium": 100000}
	},
	"limites": {
		"deposito": {"minimo": 10000, "timeout": {"minutos": 15}},
		"retiros": {"diarios": 3, "semanales": 10}
	},
	"comisiones": {
		"retiro": {"porcentaje": 5, "comision_fija": 2000}
	},
	"moneda": {"codigo": "VES", "simbolo": "Bs", "decimales": 2},
	"otros": {"ignorado": true}
}`

func TestFlattenPaymentConfig(t *testing.T) {
	fields, err := FlattenPaymentConfig([]byte(samplePaymentConfig))
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	byKey := make(map[string]Field, len(fields))
	for _, f := range fields {
		byKey[f.FieldKey()] = f
	}

	f, found := byKey["precios.torneo.entrada"]
	if !found {
		t.Fatal("nested price leaf missing")
	}
	if f.Class.Kind != configfield.KindMonetary {
		t.Fatalf("price classified as %v", f.Class.Kind)
	}
	if f.Value.(float64) != 50000 {
		t.Fatalf("price value = %v", f.Value)
	}

	f, found = byKey["limites.deposito.timeout.minutos"]
	if !found {
		t.Fatal("deposit timeout leaf missing")
	}
	if f.Class.Kind != configfield.KindBoundedCount {
		t.Fatalf("timeout classified as %v", f.Class.Kind)
	}

	f, found = byKey["moneda.codigo"]
	if !found {
		t.Fatal("currency code leaf missing")
	}
	if f.Class != configfield.FixedLengthText(3) {
		t.Fatalf("currency code classified as %+v", f.Class)
	}
	if f.Value.(string) != "VES" {
		t.Fatalf("currency code = %v", f.Value)
	}

	if _, found := byKey["otros.ignorado"]; found {
		t.Fatal("unknown group leaked into fields")
	}
}

func TestFlattenRejectsNonObject(t *testing.T) {
	if _, err := FlattenPaymentConfig([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("array accepted as payment config")
	}
}
