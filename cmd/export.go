package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project's diff report to XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("diff-%s.xlsx", args[0])
		}
		if err := env.Service.ExportDiff(cmd.Context(), args[0], out); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path")
	rootCmd.AddCommand(exportCmd)
}
