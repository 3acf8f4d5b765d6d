// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sassoftware/pdf-portfolio-xtract/segment"
)

func TestConfig_Validate(t *testing.T) {
	valid := func(mut func(*Config)) *Config {
		cfg := NewDefaultConfig()
		mut(cfg)
		return cfg
	}
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name:      "default config is valid",
			cfg:       NewDefaultConfig(),
			shouldErr: false,
		},
		{
			name:      "strict mode",
			cfg:       valid(func(c *Config) { c.ParsingMode = Strict; c.MaxConcurrentDocs = 10 }),
			shouldErr: false,
		},
		{
			name:      "invalid MaxConcurrentDocs (too low)",
			cfg:       valid(func(c *Config) { c.MaxConcurrentDocs = 0 }),
			shouldErr: true,
		},
		{
			name:      "invalid MaxConcurrentDocs (too high)",
			cfg:       valid(func(c *Config) { c.MaxConcurrentDocs = 11 }),
			shouldErr: true,
		},
		{
			name:      "invalid ParsingMode",
			cfg:       valid(func(c *Config) { c.ParsingMode = "invalid-mode" }),
			shouldErr: true,
		},
		{
			name:      "zero LineThreshold",
			cfg:       valid(func(c *Config) { c.LineThreshold = 0 }),
			shouldErr: true,
		},
		{
			name:      "nested rules are validated",
			cfg:       valid(func(c *Config) { c.Rules.DefaultCategory = "" }),
			shouldErr: true,
		},
		{
			name:      "zero rules are invalid",
			cfg:       valid(func(c *Config) { c.Rules = segment.Rules{} }),
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}
