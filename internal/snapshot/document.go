package snapshot

import "fmt"

// List returns the array stored under key. A missing or null key yields an
// empty list; any other non-array value is an error.
func (d Document) List(key string) ([]any, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is %T, not an array", key, v)
	}
	return list, nil
}

// Object returns the object stored under key. A missing or null key yields
// an empty object; any other non-object value is an error.
func (d Document) Object(key string) (map[string]any, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q is %T, not an object", key, v)
	}
	return obj, nil
}
