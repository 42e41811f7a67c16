package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SelectorFile is the on-disk shape of extractor.selectors_file.
//
//	domains:
//	  - domain: elpais.com
//	    selectors: ["div.a_c_text", "xpath://article//div[@data-dtm-region]"]
type SelectorFile struct {
	Domains []DomainSelector `yaml:"domains"`
}

// LoadSelectorFile reads a selectors YAML file.
func LoadSelectorFile(path string) ([]DomainSelector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selectors file: %w", err)
	}
	var f SelectorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse selectors file %s: %w", path, err)
	}
	return f.Domains, nil
}

// DomainSelectorMap merges built-in defaults, the config list and the
// optional selectors file, later sources replacing earlier ones per domain.
func DomainSelectorMap(cfg *ExtractorConfig) (map[string][]string, error) {
	out := make(map[string][]string)
	merge := func(list []DomainSelector) {
		for _, d := range list {
			key := NormalizeDomain(d.Domain)
			if key == "" || len(d.Selectors) == 0 {
				continue
			}
			out[key] = append([]string(nil), d.Selectors...)
		}
	}

	merge(DefaultDomainSelectors())
	merge(cfg.Domains)

	if cfg.SelectorsFile != "" {
		fromFile, err := LoadSelectorFile(cfg.SelectorsFile)
		if err != nil {
			return nil, err
		}
		merge(fromFile)
	}
	return out, nil
}

// NormalizeDomain lower-cases a domain and drops a leading "www.".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}
