package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GetByPath retrieves a config value by dot-notation path
// (e.g. "style.primaryColor" or "branding.welcomeButtons.0.label").
func GetByPath(cfg Widget, path string) (any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var current any
	if err := json.Unmarshal(data, &current); err != nil {
		return nil, err
	}
	if path == "" {
		return current, nil
	}

	for _, key := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[key]
			if !ok {
				return nil, fmt.Errorf("key not found: %s", path)
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("invalid array index: %s", key)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot traverse into %T at %s", current, key)
		}
	}
	return current, nil
}

// Sanitize returns a copy of cfg safe for display (webhook secret masked).
func Sanitize(cfg Widget) Widget {
	out := cfg
	out.Branding.WelcomeButtons = append([]WelcomeButton(nil), cfg.Branding.WelcomeButtons...)
	if out.Webhook.Secret != "" {
		out.Webhook.Secret = maskSecret(out.Webhook.Secret)
	}
	return out
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
