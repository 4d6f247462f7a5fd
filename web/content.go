package web

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Content is the editable site copy.
type Content struct {
	Site    SiteCopy    `yaml:"site"`
	AboutUs AboutUsCopy `yaml:"about_us"`
}

// SiteCopy holds titles shared across pages.
type SiteCopy struct {
	Title           string `yaml:"title"`
	Tagline         string `yaml:"tagline"`
	ChatTitle       string `yaml:"chat_title"`
	ChatPlaceholder string `yaml:"chat_placeholder"`
}

// AboutUsCopy is the about-us page text.
type AboutUsCopy struct {
	Mission string   `yaml:"mission"`
	Vision  string   `yaml:"vision"`
	Values  []Value  `yaml:"values"`
	Intro   string   `yaml:"intro"`
	Team    []string `yaml:"team"`
	Outro   string   `yaml:"outro"`
}

// Value is one company value.
type Value struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// LoadContent returns the embedded site copy, overlaid with the YAML file at
// path when path is not empty. Fields missing from the file keep their defaults.
func LoadContent(path string) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(defaultContent, &c); err != nil {
		return nil, fmt.Errorf("parse embedded content: %w", err)
	}
	if path == "" {
		return &c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", path, err)
	}
	return &c, nil
}
