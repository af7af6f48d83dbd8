// Package configfield describes the semantic classes of editable
// configuration fields and the pure conversions between their wire
// representation (integer minor currency units, plain numbers, short strings)
// and the UI representation (decimal major units).
package configfield

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags a field class.
type Kind int

const (
	// KindPlainText is free-form text, no validation.
	KindPlainText Kind = iota
	// KindMonetary is stored as integer minor currency units and edited as
	// decimal major units.
	KindMonetary
	// KindPercentage is a number in [0, 100].
	KindPercentage
	// KindBoundedCount is a positive integer, optionally capped.
	KindBoundedCount
	// KindFixedLengthText is a string of an exact length.
	KindFixedLengthText
)

// Class is a tagged field-class descriptor. Min/Max apply to bounded counts
// (Max 0 means uncapped); Length applies to fixed-length text.
type Class struct {
	Kind   Kind
	Min    int
	Max    int
	Length int
}

func Monetary() Class                { return Class{Kind: KindMonetary} }
func Percentage() Class              { return Class{Kind: KindPercentage} }
func BoundedCount(min, max int) Class { return Class{Kind: KindBoundedCount, Min: min, Max: max} }
func FixedLengthText(n int) Class    { return Class{Kind: KindFixedLengthText, Length: n} }
func PlainText() Class               { return Class{Kind: KindPlainText} }

// Payments configuration namespace types, backend-owned.
const (
	TypePrices      = "precios"
	TypeLimits      = "limites"
	TypeCommissions = "comisiones"
	TypeCurrency    = "moneda"
)

// Classify resolves the field class for a payments-namespace key. The rules
// follow the backend's schema: all prices are monetary; limits are monetary
// amounts except withdrawal counters and deposit timeouts; commissions are
// percentages except the fixed fee and the reset period; the currency group
// carries the ISO code and display settings.
func Classify(configType, configKey string) Class {
	switch configType {
	case TypePrices:
		return Monetary()

	case TypeLimits:
		switch configKey {
		case "retiros.diarios":
			return BoundedCount(1, 10)
		case "retiros.semanales":
			return BoundedCount(1, 20)
		}
		if strings.HasPrefix(configKey, "deposito.timeout.") {
			return BoundedCount(1, 30)
		}
		return Monetary()

	case TypeCommissions:
		switch configKey {
		case "retiro.comision_fija":
			return Monetary()
		case "retiro.frecuencia_semanal.periodo_dias":
			return BoundedCount(1, 0)
		}
		return Percentage()

	case TypeCurrency:
		switch configKey {
		case "codigo":
			return FixedLengthText(3)
		case "decimales":
			return BoundedCount(0, 4)
		}
		return PlainText()
	}

	return PlainText()
}

// ToMajorUnits converts an integer minor-unit wire value to the decimal
// major-unit UI value. Non-numeric wire values map to 0.
func ToMajorUnits(wire interface{}) float64 {
	v, ok := asNumber(wire)
	if !ok {
		return 0
	}
	return v / 100
}

// ToMinorUnits converts a decimal major-unit UI value back to integer minor
// units, rounding to the nearest unit. Non-numeric and negative inputs are
// conversion errors.
func ToMinorUnits(ui interface{}) (int64, error) {
	v, ok := asNumber(ui)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value must be a number")
	}
	if v < 0 {
		return 0, fmt.Errorf("value must not be negative")
	}
	return int64(math.Round(v * 100)), nil
}

// ToWire converts a UI value to the wire representation for the class:
// monetary values go through the minor-unit conversion, numeric classes are
// parsed as numbers, text classes pass through as strings.
func ToWire(class Class, ui interface{}) (interface{}, error) {
	switch class.Kind {
	case KindMonetary:
		minor, err := ToMinorUnits(ui)
		if err != nil {
			return nil, err
		}
		return minor, nil
	case KindPercentage, KindBoundedCount:
		v, ok := asNumber(ui)
		if !ok {
			return nil, fmt.Errorf("value must be a number")
		}
		return v, nil
	default:
		if s, ok := ui.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", ui), nil
	}
}

// ToUI converts a wire value to the edit-friendly UI representation.
// Only monetary fields differ between the two representations.
func ToUI(class Class, wire interface{}) interface{} {
	if class.Kind == KindMonetary {
		return ToMajorUnits(wire)
	}
	return wire
}

// Format renders a wire value for display.
func Format(class Class, wire interface{}) string {
	if wire == nil {
		return "-"
	}
	switch class.Kind {
	case KindMonetary:
		return strconv.FormatFloat(ToMajorUnits(wire), 'f', 2, 64)
	case KindPercentage:
		if v, ok := asNumber(wire); ok {
			return strconv.FormatFloat(v, 'f', -1, 64) + "%"
		}
	case KindBoundedCount:
		if v, ok := asNumber(wire); ok {
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return fmt.Sprintf("%v", wire)
}

// asNumber widens the numeric shapes that JSON decoding and user input
// produce. Strings are parsed; empty strings are not numbers.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
