package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		if format == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"version": version,
				"commit":  commit,
				"date":    date,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cilsil %s (commit %s, built %s)\n", version, commit, date)
		return nil
	},
}
