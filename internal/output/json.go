package output

import (
	"encoding/json"
	"os"
)

// PrintJSON outputs any value as formatted JSON to stdout.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatJSON returns formatted JSON as a string.
func FormatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PrintJSONError outputs an error as JSON to stdout.
func PrintJSONError(err error, exitCode int) {
	PrintJSON(map[string]interface{}{
		"error":    err.Error(),
		"exitCode": exitCode,
	})
}
