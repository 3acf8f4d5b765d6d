// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"github.com/go-playground/validator/v10"

	"github.com/sassoftware/pdf-portfolio-xtract/layout"
	"github.com/sassoftware/pdf-portfolio-xtract/logger"
	"github.com/sassoftware/pdf-portfolio-xtract/segment"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	MaxConcurrentDocs int         `validate:"min=1,max=10"`
	ParsingMode       ParsingMode `validate:"oneof=strict best-effort"`
	// LineThreshold is the baseline distance that separates two lines.
	LineThreshold float64 `validate:"gt=0"`
	Rules         segment.Rules
	DebugOn       bool
	Logger        logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocs: 5,
		ParsingMode:       BestEffort,
		LineThreshold:     layout.DefaultThreshold,
		Rules:             segment.DefaultRules(),
		DebugOn:           false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
