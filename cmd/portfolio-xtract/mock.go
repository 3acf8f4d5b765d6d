// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sassoftware/pdf-portfolio-xtract/mockdoc"
)

const defaultMockPath = "input/mock.pdf"

var mockCmd = &cobra.Command{
	Use:   "mock [path]",
	Short: "Write a four-page sample portfolio PDF",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultMockPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := mockdoc.Sample().WriteFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mockCmd)
}
