// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Command portfolio-xtract turns a portfolio PDF into a list of projects
// with their images.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-xtract <document.pdf>",
	Short: "Extract portfolio projects and their images from a PDF",
	Long: `portfolio-xtract reads a portfolio-style PDF, detects where each project
starts from its headings, and writes the projects to <output_dir>/works.json.
JPEG images are copied to <assets_dir>/<project-id>/.

Settings come from ./portfolio-xtract.yaml and PORTFOLIO_XTRACT_* variables.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), settingsFrom(viper.GetViper()), args[0], cmd.OutOrStdout())
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())
}

func initConfig() {
	viper.SetConfigName("portfolio-xtract")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("PORTFOLIO_XTRACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
