// Package config holds the linter configuration: the prescribed document
// order, the bibliography fragment name, rule word lists and the scientific
// repository allow-list. Defaults match the house style used for the
// technical report; a YAML file can overlay any of them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full linter configuration.
type Config struct {
	// DocumentOrder lists fragment stems in reading order. A fragment's
	// rank in this list decides bibliography ordering; fragments not
	// listed rank after every listed one.
	DocumentOrder []string `yaml:"document_order"`

	// Bibliography is the stem of the bibliography fragment. It is always
	// processed last.
	Bibliography string `yaml:"bibliography"`

	// DefaultPaths is the worklist used when the CLI receives no paths.
	DefaultPaths []string `yaml:"default_paths"`

	// ForbiddenWords are substrings reported as errors wherever they
	// appear (case-insensitive).
	ForbiddenWords []string `yaml:"forbidden_words"`

	// YoWords maps words misspelled with 'е' to their 'ё' spelling.
	YoWords map[string]string `yaml:"yo_words"`

	// ScientificDomains classifies bibliography URLs as scientific
	// repository sources (matched as substrings of the URL host part).
	ScientificDomains []string `yaml:"scientific_domains"`

	// Abbreviations are lowercase tails whose trailing period the list
	// rewriter must leave alone.
	Abbreviations []string `yaml:"abbreviations"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DocumentOrder: []string{
			"abstract",
			"intro",
			"analytic_part",
			"design_part",
			"tech_part",
			"experimental_part",
			"conclusion",
			"additions",
		},
		Bibliography: "links",
		DefaultPaths: []string{"."},
		ForbiddenWords: []string{
			"рассмотрим",
			"обозначим",
			"эксперим",
		},
		YoWords: map[string]string{
			"ее":           "её",
			"еще":          "ещё",
			"ребер":        "рёбер",
			"посещенную":   "посещённую",
			"посещенных":   "посещённых",
			"учет":         "учёт",
			"путем":        "путём",
			"дает":         "даёт",
			"счет":         "счёт",
			"усредненные":  "усреднённые",
			"усредненное":  "усреднённое",
			"растет":       "растёт",
			"проведенный":  "проведённый",
			"проведенных":  "проведённых",
			"ведется":      "ведётся",
			"определенной": "определённой",
			"трудоемкость": "трудоёмкость",
			"трудоемкости": "трудоёмкости",
			"остается":     "остаётся",
			"проведен":     "проведён",
		},
		ScientificDomains: []string{
			"arxiv.org",
			"cyberleninka.ru",
			"elibrary.ru",
			"springer.com",
			"ieee.org",
			"acm.org",
			"sciencedirect.com",
			"tandfonline.com",
			"researchgate.net",
			"academia.edu",
			"scholar.google.com",
			"sci-hub.se",
			"sci-hub.st",
			"sci-hub.ru",
			"link.springer.com",
			"ieeexplore.ieee.org",
		},
		Abbreviations: []string{
			"т. д.",
			"т.д.",
			"т. п.",
			"т.п.",
			"и др.",
			"др.",
			"etc.",
		},
	}
}

// Load reads a YAML configuration file and overlays it on the defaults.
// Only keys present in the file replace their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.Bibliography == "" {
		return fmt.Errorf("bibliography fragment name cannot be empty")
	}
	for _, stem := range c.DocumentOrder {
		if stem == c.Bibliography {
			return fmt.Errorf("bibliography fragment %q must not appear in document_order", stem)
		}
	}
	return nil
}
