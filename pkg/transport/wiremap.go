package transport

import "fmt"

// The helper wire format cannot express native maps with non-string keys,
// so map-valued fields travel as {"__map__": [[k, v], ...]} markers. These
// helpers convert between the wire shape and ordinary Go maps, recursing
// through nested objects and arrays.

const mapMarker = "__map__"

// convertWireValue rewrites wire map markers into plain maps going inbound.
// Marker keys are stringified so converted frames stay JSON-encodable.
func convertWireValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if entries, ok := val[mapMarker]; ok && len(val) == 1 {
			if pairs, ok := entries.([]any); ok {
				m := make(map[string]any, len(pairs))
				for _, p := range pairs {
					pair, ok := p.([]any)
					if !ok || len(pair) != 2 {
						return val
					}
					key, ok := pair[0].(string)
					if !ok {
						key = fmt.Sprint(pair[0])
					}
					m[key] = convertWireValue(pair[1])
				}
				return m
			}
		}
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = convertWireValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = convertWireValue(inner)
		}
		return out
	default:
		return v
	}
}

// flattenWireValue rewrites map[any]any values into wire map markers going
// outbound.
func flattenWireValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		pairs := make([]any, 0, len(val))
		for k, inner := range val {
			pairs = append(pairs, []any{flattenWireValue(k), flattenWireValue(inner)})
		}
		return map[string]any{mapMarker: pairs}
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = flattenWireValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = flattenWireValue(inner)
		}
		return out
	default:
		return v
	}
}
