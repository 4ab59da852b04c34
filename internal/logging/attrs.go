package logging

import "log/slog"

// attrsToMap flattens slog attrs into the Event field map, expanding
// groups into nested maps.
func attrsToMap(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		values[attr.Key] = attrValue(attr.Value)
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func attrValue(value slog.Value) any {
	value = value.Resolve()
	if value.Kind() != slog.KindGroup {
		return value.Any()
	}
	inner := map[string]any{}
	for _, groupAttr := range value.Group() {
		if groupAttr.Key == "" {
			continue
		}
		inner[groupAttr.Key] = attrValue(groupAttr.Value)
	}
	return inner
}
