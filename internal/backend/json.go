package backend

// Typed accessors for compositor JSON. The tools' output format is not
// ours to rely on, so adapters decode into generic maps and pull out
// only the fields they need, tolerating missing keys and wrong types
// per field.

func jsonString(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func jsonInt(obj map[string]any, key string) (int, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	// encoding/json decodes all numbers into float64.
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func jsonBool(obj map[string]any, key string) (bool, bool) {
	v, ok := obj[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func jsonObject(obj map[string]any, key string) (map[string]any, bool) {
	v, ok := obj[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func jsonArray(obj map[string]any, key string) ([]any, bool) {
	v, ok := obj[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// jsonIntPair reads a two-element numeric array like Hyprland's
// "at": [x, y].
func jsonIntPair(obj map[string]any, key string) (int, int, bool) {
	arr, ok := jsonArray(obj, key)
	if !ok || len(arr) < 2 {
		return 0, 0, false
	}
	a, aok := arr[0].(float64)
	b, bok := arr[1].(float64)
	if !aok || !bok {
		return 0, 0, false
	}
	return int(a), int(b), true
}
