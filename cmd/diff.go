package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff <project-id>",
	Short: "Reconcile extracted values across a project's documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.Diff(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if diffJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		for _, fd := range report.FieldDiffs {
			marker := "=="
			if !fd.IsUnanimous {
				marker = "!="
			}
			fmt.Printf("%s %-30s majority=%q (%d/%d)\n",
				marker, fd.FieldName, fd.MajorityValue, fd.MajorityCount, fd.TotalDocuments)
			for _, o := range fd.Outliers {
				fmt.Printf("     outlier %s: %q\n", o.Document, o.Value)
			}
		}
		fmt.Printf("\n%d fields, %d with differences, unanimity %.1f%%\n",
			report.Summary.TotalFields, report.Summary.FieldsWithDifferences, report.Summary.UnanimityRate*100)
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "emit the full report as JSON")
	rootCmd.AddCommand(diffCmd)
}
