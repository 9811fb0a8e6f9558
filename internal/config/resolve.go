package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resolve merges a partial host override onto defaults and validates the result.
//
// Objects merge key by key, recursively. Any other override value, including
// arrays such as branding.welcomeButtons, replaces the default wholesale.
// Keys absent from the override, and keys whose override value is null, keep
// the default. Neither argument is modified, so resolving the same inputs
// twice yields the same Widget.
func Resolve(defaults Widget, override map[string]any) (Widget, error) {
	base, err := toMap(defaults)
	if err != nil {
		return Widget{}, fmt.Errorf("encode defaults: %w", err)
	}

	merged := deepMerge(base, override)

	data, err := json.Marshal(merged)
	if err != nil {
		return Widget{}, fmt.Errorf("encode merged config: %w", err)
	}
	var out Widget
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
		return Widget{}, &Error{Field: "override", Err: err}
	}

	if err := Validate(out); err != nil {
		return out, err
	}
	return out, nil
}

// deepMerge returns a new map; dst and src are left untouched.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if v == nil {
			continue
		}
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = deepMerge(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}

func toMap(cfg Widget) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
