// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Persistent flags.
var verbose bool

// rootCmd is the top-level uncertain command.
var rootCmd = &cobra.Command{
	Use:   "uncertain",
	Short: "Sample uncertain-value expression graphs",
	Long: `uncertain evaluates expression graphs over uncertain values with
consistent, memoized sampling: every reference to the same source receives
the same draw at the same sample index, so identities like x - x == 0 hold
exactly, per sample.

Models are described in YAML; see 'uncertain sample --help' for the format.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(sampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
