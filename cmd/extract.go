package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-review/internal/model"
)

var (
	extractProjectID  string
	extractDocumentID string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extraction cascade over a project or single document",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var results []*model.ExtractionResult
		switch {
		case extractDocumentID != "":
			results, err = env.Service.ExtractDocument(cmd.Context(), extractDocumentID)
		case extractProjectID != "":
			results, err = env.Service.ExtractProject(cmd.Context(), extractProjectID)
		default:
			return eris.New("one of --project or --document is required")
		}
		if err != nil {
			return err
		}

		for _, r := range results {
			if r.Status == model.ExtractionStatusMissingData {
				fmt.Printf("%-30s <missing>\n", r.FieldName)
				continue
			}
			fmt.Printf("%-30s %-40s conf=%.2f via %s\n",
				r.FieldName, truncate(r.ExtractedValue, 40), r.ConfidenceScore, r.Metadata.Method)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	extractCmd.Flags().StringVar(&extractProjectID, "project", "", "project ID")
	extractCmd.Flags().StringVar(&extractDocumentID, "document", "", "document ID")
	rootCmd.AddCommand(extractCmd)
}
