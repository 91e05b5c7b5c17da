package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules controls which tabs are offered for review.
type Rules struct {
	// IgnoreURLPrefixes hides tabs whose URL starts with any entry.
	IgnoreURLPrefixes []string `yaml:"ignore_url_prefixes"`
}

func DefaultRules() *Rules {
	return &Rules{IgnoreURLPrefixes: []string{"devtools://"}}
}

// LoadRules reads a rules YAML file. A missing file yields DefaultRules; a
// file without ignore_url_prefixes keeps the default list.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultRules(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("rules config: %w", err)
	}

	var raw struct {
		IgnoreURLPrefixes *[]string `yaml:"ignore_url_prefixes"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rules config: %w", err)
	}

	rules := DefaultRules()
	if raw.IgnoreURLPrefixes != nil {
		rules.IgnoreURLPrefixes = *raw.IgnoreURLPrefixes
	}
	for i, p := range rules.IgnoreURLPrefixes {
		if p == "" {
			return nil, fmt.Errorf("rules config: ignore_url_prefixes[%d] is empty", i)
		}
	}
	return rules, nil
}
