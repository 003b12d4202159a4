//go:build stdjson

package jsoncompat

import "encoding/json"

// Marshal proxies to encoding/json when built with the stdjson tag.
func Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal proxies to encoding/json when built with the stdjson tag.
func Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
