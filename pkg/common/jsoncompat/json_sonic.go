//go:build !stdjson

package jsoncompat

import "github.com/bytedance/sonic"

// std compatible config keeps map keys sorted and html escaped like encoding/json
var api = sonic.ConfigStd

// Marshal encodes with sonic unless built with the stdjson tag.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// Unmarshal decodes with sonic unless built with the stdjson tag.
func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }
