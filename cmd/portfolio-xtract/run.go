// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	xtract "github.com/sassoftware/pdf-portfolio-xtract"
	"github.com/sassoftware/pdf-portfolio-xtract/assets"
	"github.com/sassoftware/pdf-portfolio-xtract/images"
	"github.com/sassoftware/pdf-portfolio-xtract/logger"
	"github.com/sassoftware/pdf-portfolio-xtract/segment"
	"github.com/sassoftware/pdf-portfolio-xtract/tracer"
)

type settings struct {
	AssetsDir   string
	OutputDir   string
	ParsingMode string
	LogLevel    string
	LogFormat   string
	RulesFile   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assets_dir", "assets")
	v.SetDefault("output_dir", "output")
	v.SetDefault("parsing_mode", string(xtract.BestEffort))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("rules_file", "")
}

func settingsFrom(v *viper.Viper) settings {
	return settings{
		AssetsDir:   v.GetString("assets_dir"),
		OutputDir:   v.GetString("output_dir"),
		ParsingMode: v.GetString("parsing_mode"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		RulesFile:   v.GetString("rules_file"),
	}
}

func loadRules(path string) (segment.Rules, error) {
	if path == "" {
		return segment.DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return segment.Rules{}, err
	}
	defer f.Close()
	return segment.LoadRules(f)
}

// run extracts doc, stages its images under a per-run directory, publishes
// them per project and writes works.json.
func run(ctx context.Context, s settings, doc string, stdout io.Writer) error {
	abs, err := filepath.Abs(doc)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("file not found: %s", abs)
	}

	zl, err := logger.NewZap(s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	rules, err := loadRules(s.RulesFile)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	cfg := xtract.NewDefaultConfig()
	cfg.MaxConcurrentDocs = 1
	cfg.ParsingMode = xtract.ParsingMode(s.ParsingMode)
	cfg.Rules = rules
	cfg.Logger = logger.ZapFunc(zl)
	cfg.DebugOn = s.LogLevel == string(logger.DebugLevel)

	proc, err := xtract.NewProcessor(cfg)
	if err != nil {
		return err
	}

	staging := filepath.Join(s.AssetsDir, "temp-"+uuid.NewString())
	defer os.RemoveAll(staging)

	logger.Info("Processing", "path", abs)
	res, err := proc.Extract(ctx, abs, images.DirStore{Dir: staging})
	if err != nil {
		if cfg.DebugOn {
			_ = tracer.Flush(os.Stderr)
		}
		return err
	}
	logger.Info("Extracted", "pages", len(res.Pages), "images", len(res.Images), "projects", len(res.Projects))

	output := filepath.Join(s.OutputDir, "works.json")
	if _, err := assets.Publish(res.Projects, assets.Options{AssetsDir: s.AssetsDir, OutputPath: output}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d projects to %s\n", len(res.Projects), output)
	return nil
}
