package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed gate_rules.yaml
var defaultGateRules []byte

// GateRule maps a protected path prefix to its unauthenticated redirect.
type GateRule struct {
	Prefix  string   `yaml:"prefix"`
	Login   string   `yaml:"login"`
	Exclude []string `yaml:"exclude"`
}

// GateRules configures the route admission gate.
type GateRules struct {
	MarkerCookie string     `yaml:"marker_cookie"`
	Rules        []GateRule `yaml:"rules"`
}

// DefaultGateRules returns the embedded rules.
func DefaultGateRules() GateRules {
	rules, err := ParseGateRules(defaultGateRules)
	if err != nil {
		panic("config: embedded gate rules are invalid: " + err.Error())
	}
	return rules
}

// LoadGateRules reads rules from path, or the embedded defaults when path is
// empty.
func LoadGateRules(path string) (GateRules, error) {
	if path == "" {
		return DefaultGateRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return GateRules{}, fmt.Errorf("config: read gate rules: %w", err)
	}
	return ParseGateRules(raw)
}

// ParseGateRules decodes and validates YAML gate rules.
func ParseGateRules(raw []byte) (GateRules, error) {
	var rules GateRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return GateRules{}, fmt.Errorf("config: parse gate rules: %w", err)
	}
	if rules.MarkerCookie == "" {
		return GateRules{}, fmt.Errorf("config: gate rules need marker_cookie")
	}
	for i, r := range rules.Rules {
		if !strings.HasPrefix(r.Prefix, "/") || r.Prefix == "/" {
			return GateRules{}, fmt.Errorf("config: rule %d: prefix %q must be a non-root absolute path", i, r.Prefix)
		}
		prefix := strings.TrimSuffix(r.Prefix, "/")
		rules.Rules[i].Prefix = prefix
		if !strings.HasPrefix(r.Login, "/") {
			return GateRules{}, fmt.Errorf("config: rule %d: login %q must be an absolute path", i, r.Login)
		}
		inside := r.Login == prefix || strings.HasPrefix(r.Login, prefix+"/")
		if inside && !contains(r.Exclude, r.Login) {
			return GateRules{}, fmt.Errorf("config: rule %d: login %q is gated by its own prefix and would loop", i, r.Login)
		}
	}
	return rules, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
