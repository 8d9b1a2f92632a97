// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// ProjectFileName is the override file looked up at a project root.
const ProjectFileName = "gettext.config.yaml"

// Override is the shape of a project override document.
//
// Description:
//
//	Every field is optional. Lists are appended to the base configuration;
//	scalars replace the base value only when set.
type Override struct {
	TranslationWrappers []string        `yaml:"translation_wrappers"`
	Content             contentOverride `yaml:"content"`
	Structure           StructureConfig `yaml:"structure"`
	Limits              LimitsConfig    `yaml:"limits"`
	Exclude             []string        `yaml:"exclude"`
}

type contentOverride struct {
	AllowList            []string `yaml:"allow_list"`
	StructuredURLParsing *bool    `yaml:"structured_url_parsing"`
	URLProtocols         []string `yaml:"url_protocols"`
	URLExtensions        []string `yaml:"url_extensions"`
	HeaderPrefixes       []string `yaml:"header_prefixes"`
}

// Apply returns a copy of base extended by the override.
//
// Outputs:
//
//	*Config - The merged configuration. base is not modified.
//	error - Wraps ErrInvalidConfig if the merged result is invalid.
func (o *Override) Apply(base *Config) (*Config, error) {
	out := base.Clone()
	if out == nil {
		return nil, fmt.Errorf("%w: nil base config", ErrInvalidConfig)
	}

	out.TranslationWrappers = appendNew(out.TranslationWrappers, o.TranslationWrappers)
	out.Exclude = appendNew(out.Exclude, o.Exclude)

	c := &out.Content
	c.AllowList = appendNew(c.AllowList, o.Content.AllowList)
	c.URLProtocols = appendNew(c.URLProtocols, o.Content.URLProtocols)
	c.URLExtensions = appendNew(c.URLExtensions, o.Content.URLExtensions)
	c.HeaderPrefixes = appendNew(c.HeaderPrefixes, o.Content.HeaderPrefixes)
	if o.Content.StructuredURLParsing != nil {
		c.StructuredURLParsing = *o.Content.StructuredURLParsing
	}

	s, add := &out.Structure, o.Structure
	s.ConfigAttributeNames = appendNew(s.ConfigAttributeNames, add.ConfigAttributeNames)
	if add.AttrsKeyword != "" {
		s.AttrsKeyword = add.AttrsKeyword
	}
	s.HTMLAttributeNames = appendNew(s.HTMLAttributeNames, add.HTMLAttributeNames)
	s.AttrsFactoryNames = appendNew(s.AttrsFactoryNames, add.AttrsFactoryNames)
	s.FieldOptionKeywords = appendNew(s.FieldOptionKeywords, add.FieldOptionKeywords)
	s.SingleElementKeywords = appendNew(s.SingleElementKeywords, add.SingleElementKeywords)
	s.MemberKeywords = appendNew(s.MemberKeywords, add.MemberKeywords)
	s.RawSQLMethods = appendNew(s.RawSQLMethods, add.RawSQLMethods)
	s.QuerysetMethods = appendNew(s.QuerysetMethods, add.QuerysetMethods)
	s.LoggingModules = appendNew(s.LoggingModules, add.LoggingModules)
	s.AttributeProbeFunctions = appendNew(s.AttributeProbeFunctions, add.AttributeProbeFunctions)
	s.HTTPResponseClasses = appendNew(s.HTTPResponseClasses, add.HTTPResponseClasses)
	s.CookieSetters = appendNew(s.CookieSetters, add.CookieSetters)
	s.RelationFields = appendNew(s.RelationFields, add.RelationFields)

	if o.Limits.MaxAncestorDepth != 0 {
		out.Limits.MaxAncestorDepth = o.Limits.MaxAncestorDepth
	}
	if o.Limits.MaxFileSize != 0 {
		out.Limits.MaxFileSize = o.Limits.MaxFileSize
	}
	if o.Limits.Workers != 0 {
		out.Limits.Workers = o.Limits.Workers
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// appendNew appends the entries of extra that base does not already hold.
func appendNew(base, extra []string) []string {
	for _, v := range extra {
		if !slices.Contains(base, v) {
			base = append(base, v)
		}
	}
	return base
}

// ParseOverride decodes an override document. Unknown keys are rejected.
func ParseOverride(data []byte) (*Override, error) {
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("override exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var o Override
	if len(data) == 0 {
		return &o, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		if errors.Is(err, io.EOF) {
			return &o, nil
		}
		return nil, fmt.Errorf("parsing override: %w", err)
	}
	return &o, nil
}

// LoadFile applies the override file at path on top of the defaults.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	path - Path to an override YAML file. It must exist.
//
// Outputs:
//
//	*Config - The merged configuration.
//	error - Non-nil if the file cannot be read, parsed or validated.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	ctx, span := configTracer.Start(ctx, "config.LoadFile")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return applyOverrideBytes(ctx, path, data)
}

// LoadProject loads gettext.config.yaml from the project root.
//
// Description:
//
//	If the project root is empty or the file does not exist, returns the
//	defaults with no error (zero-config works out of the box). Only returns
//	an error if the file exists but cannot be read, parsed or validated.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	projectRoot - Directory to look in. May be empty.
//
// Outputs:
//
//	*Config - The effective configuration.
//	error - Non-nil only if an existing override file is unusable.
//
// Thread Safety: Safe for concurrent use (stateless function).
func LoadProject(ctx context.Context, projectRoot string) (*Config, error) {
	if projectRoot == "" {
		return Default(ctx)
	}

	configPath := filepath.Join(projectRoot, ProjectFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(ctx)
		}
		return nil, fmt.Errorf("reading %s: %w", ProjectFileName, err)
	}

	slog.Debug("applying project gettext config", slog.String("path", configPath))
	return applyOverrideBytes(ctx, configPath, data)
}

func applyOverrideBytes(ctx context.Context, path string, data []byte) (*Config, error) {
	override, err := ParseOverride(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base, err := Default(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := override.Apply(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
