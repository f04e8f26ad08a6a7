package x402

// Helpers for reading untrusted JSON decoded into interface{} values.
// A value of the wrong type is reported as absent.

// Object returns v as a JSON object, or nil.
func Object(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// OptString returns a pointer to v when v is a JSON string, including "".
func OptString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// NonEmptyString returns v when it is a non-empty JSON string.
func NonEmptyString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// OptBool returns v when it is a JSON boolean.
func OptBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// optInt returns v as an int when it is a whole JSON number.
func optInt(v interface{}) *int {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}
