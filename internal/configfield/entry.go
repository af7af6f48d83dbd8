package configfield

// ClassForEntry maps a general settings entry's declared data type and
// optional numeric range onto a field class. Numeric settings in the general
// namespace are whole-valued on the wire, so they validate as bounded counts.
func ClassForEntry(dataType string, min, max *float64) Class {
	switch dataType {
	case "number":
		c := BoundedCount(0, 0)
		if min != nil {
			c.Min = int(*min)
		}
		if max != nil {
			c.Max = int(*max)
		}
		return c
	default:
		return PlainText()
	}
}
