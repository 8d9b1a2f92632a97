// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the name lists and limits that drive classification.
//
// The defaults are embedded in the binary. Projects extend them with a
// gettext.config.yaml file at their root.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Rules
// =============================================================================

//go:embed default_rules.yaml
var defaultRulesYAML []byte

var configTracer = otel.Tracer("gettextcheck.config")

// MaxYAMLFileSize bounds any configuration document this package will parse.
const MaxYAMLFileSize = 1 << 20

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid gettext configuration")

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the complete classification configuration.
//
// Description:
//
//	Everything product-specific lives here as data: the translation wrapper
//	names, the content allow-list and URL heuristics, and every name-set the
//	structural rules consult.
//
// Thread Safety: Immutable after loading; safe for concurrent use. Use
// Clone before modifying a shared instance.
type Config struct {
	// TranslationWrappers are bare callee names that mark a literal as
	// translated, e.g. "_" and "ungettext".
	TranslationWrappers []string `yaml:"translation_wrappers" validate:"min=1,dive,required"`

	Content   ContentConfig   `yaml:"content"`
	Structure StructureConfig `yaml:"structure"`
	Limits    LimitsConfig    `yaml:"limits"`

	// Exclude lists path prefixes, relative to the checked root, to skip.
	Exclude []string `yaml:"exclude" validate:"dive,required"`
}

// ContentConfig drives the content stage of classification.
type ContentConfig struct {
	// AllowList holds exact strings that are always exempt.
	AllowList []string `yaml:"allow_list" validate:"dive,required"`

	// StructuredURLParsing selects net/url based URL recognition. When false
	// the protocol and extension heuristic is used.
	StructuredURLParsing bool `yaml:"structured_url_parsing"`

	URLProtocols   []string `yaml:"url_protocols" validate:"dive,required"`
	URLExtensions  []string `yaml:"url_extensions" validate:"dive,required"`
	HeaderPrefixes []string `yaml:"header_prefixes" validate:"dive,required"`
}

// StructureConfig holds the name-sets consulted by the structural rules.
type StructureConfig struct {
	ConfigAttributeNames    []string `yaml:"config_attribute_names" validate:"dive,required"`
	AttrsKeyword            string   `yaml:"attrs_keyword" validate:"required"`
	HTMLAttributeNames      []string `yaml:"html_attribute_names" validate:"dive,required"`
	AttrsFactoryNames       []string `yaml:"attrs_factory_names" validate:"dive,required"`
	FieldOptionKeywords     []string `yaml:"field_option_keywords" validate:"dive,required"`
	SingleElementKeywords   []string `yaml:"single_element_keywords" validate:"dive,required"`
	MemberKeywords          []string `yaml:"member_keywords" validate:"dive,required"`
	RawSQLMethods           []string `yaml:"raw_sql_methods" validate:"dive,required"`
	QuerysetMethods         []string `yaml:"queryset_methods" validate:"dive,required"`
	LoggingModules          []string `yaml:"logging_modules" validate:"dive,required"`
	AttributeProbeFunctions []string `yaml:"attribute_probe_functions" validate:"dive,required"`
	HTTPResponseClasses     []string `yaml:"http_response_classes" validate:"dive,required"`
	CookieSetters           []string `yaml:"cookie_setters" validate:"dive,required"`
	RelationFields          []string `yaml:"relation_fields" validate:"dive,required"`
}

// LimitsConfig bounds the work done per literal and per file.
type LimitsConfig struct {
	// MaxAncestorDepth is the number of parent steps after which the tree is
	// considered cyclic.
	MaxAncestorDepth int `yaml:"max_ancestor_depth" validate:"min=1"`

	// MaxFileSize is the largest source file, in bytes, that will be parsed.
	MaxFileSize int64 `yaml:"max_file_size" validate:"min=1"`

	// Workers bounds concurrent file checks. Zero means one per CPU.
	Workers int `yaml:"workers" validate:"min=0"`
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.TranslationWrappers = slices.Clone(c.TranslationWrappers)
	out.Exclude = slices.Clone(c.Exclude)

	out.Content.AllowList = slices.Clone(c.Content.AllowList)
	out.Content.URLProtocols = slices.Clone(c.Content.URLProtocols)
	out.Content.URLExtensions = slices.Clone(c.Content.URLExtensions)
	out.Content.HeaderPrefixes = slices.Clone(c.Content.HeaderPrefixes)

	s := &out.Structure
	s.ConfigAttributeNames = slices.Clone(c.Structure.ConfigAttributeNames)
	s.HTMLAttributeNames = slices.Clone(c.Structure.HTMLAttributeNames)
	s.AttrsFactoryNames = slices.Clone(c.Structure.AttrsFactoryNames)
	s.FieldOptionKeywords = slices.Clone(c.Structure.FieldOptionKeywords)
	s.SingleElementKeywords = slices.Clone(c.Structure.SingleElementKeywords)
	s.MemberKeywords = slices.Clone(c.Structure.MemberKeywords)
	s.RawSQLMethods = slices.Clone(c.Structure.RawSQLMethods)
	s.QuerysetMethods = slices.Clone(c.Structure.QuerysetMethods)
	s.LoggingModules = slices.Clone(c.Structure.LoggingModules)
	s.AttributeProbeFunctions = slices.Clone(c.Structure.AttributeProbeFunctions)
	s.HTTPResponseClasses = slices.Clone(c.Structure.HTTPResponseClasses)
	s.CookieSetters = slices.Clone(c.Structure.CookieSetters)
	s.RelationFields = slices.Clone(c.Structure.RelationFields)
	return &out
}

// =============================================================================
// Singleton Default Config
// =============================================================================

var (
	defaultConfigMu      sync.RWMutex
	defaultConfigOnce    sync.Once
	cachedDefaultConfig  *Config
	defaultConfigLoadErr error
)

// Default returns a copy of the embedded default configuration.
//
// Description:
//
//	Parses the embedded rules on first call and caches the result. Every
//	call returns a fresh clone so callers may modify it freely.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//
// Outputs:
//
//	*Config - The default configuration. Never nil on success.
//	error - Non-nil if the embedded rules fail to load.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Default(ctx context.Context) (*Config, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Default: ctx must not be nil")
	}

	defaultConfigMu.RLock()
	if cachedDefaultConfig != nil || defaultConfigLoadErr != nil {
		cfg, err := cachedDefaultConfig, defaultConfigLoadErr
		defaultConfigMu.RUnlock()
		return cfg.Clone(), err
	}
	defaultConfigMu.RUnlock()

	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()

	defaultConfigOnce.Do(func() {
		cachedDefaultConfig, defaultConfigLoadErr = Load(ctx, defaultRulesYAML)
	})

	return cachedDefaultConfig.Clone(), defaultConfigLoadErr
}

// ResetDefault clears the cached default config for testing.
//
// Thread Safety: Safe for concurrent use.
func ResetDefault() {
	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()
	cachedDefaultConfig = nil
	defaultConfigLoadErr = nil
	defaultConfigOnce = sync.Once{}
}

// Load parses and validates a complete configuration from YAML bytes.
//
// Description:
//
//	Unlike the project override path, Load does not start from the
//	defaults: the document must describe the whole configuration.
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML bytes to parse.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil if parsing or validation fails. Validation failures
//	  wrap ErrInvalidConfig.
func Load(ctx context.Context, data []byte) (*Config, error) {
	_, span := configTracer.Start(ctx, "config.Load")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("Load: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("Load: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("Load: parsing YAML: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	span.SetAttributes(
		attribute.Int("translation_wrappers", len(cfg.TranslationWrappers)),
		attribute.Int("allow_list", len(cfg.Content.AllowList)),
		attribute.Bool("structured_url_parsing", cfg.Content.StructuredURLParsing),
	)

	slog.Debug("gettext config loaded",
		slog.Int("translation_wrappers", len(cfg.TranslationWrappers)),
		slog.Int("config_attribute_names", len(cfg.Structure.ConfigAttributeNames)),
		slog.Int("max_ancestor_depth", cfg.Limits.MaxAncestorDepth),
	)

	return &cfg, nil
}

// =============================================================================
// Validation
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML key so errors point at the config file.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a configuration for structural consistency.
//
// Outputs:
//
//	error - Nil when valid; otherwise wraps ErrInvalidConfig and names every
//	  offending field by its YAML path.
//
// Thread Safety: Safe for concurrent use.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
