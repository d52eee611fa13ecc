// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads a sweep definition from YAML. A definition names the
// command template and, optionally, the CSV output destination, as an
// alternative to passing the template on the command line.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
)

var (
	// ErrInvalidYaml is returned when the definition cannot be parsed.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrNoCommand is returned when the definition has no command template.
	ErrNoCommand = errors.New("no command specified")
)

// TokenList is a command template. In YAML it may be written either as a
// sequence of tokens or as a single string that is split on whitespace.
type TokenList []string

// UnmarshalYAML implements the yaml.BytesUnmarshaler interface.
func (t *TokenList) UnmarshalYAML(data []byte) error {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		*t = list

		return nil
	}

	var s string
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}

	*t = strings.Fields(s)

	return nil
}

// Definition represents one sweep: a command template plus optional output
// destination.
type Definition struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Command     TokenList `yaml:"command"`
	Output      string    `yaml:"output"`
}

// BuildFromYAML parses a sweep definition from YAML configuration.
func BuildFromYAML(ctx context.Context, yamlData []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(yamlData, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	if len(def.Command) == 0 {
		return nil, ErrNoCommand
	}

	ctxlog.Debug(ctx, "loaded sweep definition", "name", def.Name, "tokens", len(def.Command), "output", def.Output)

	return &def, nil
}
