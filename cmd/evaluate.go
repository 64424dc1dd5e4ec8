package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-review/internal/model"
)

var (
	evaluateDocumentID string
	evaluateFieldName  string
	evaluateHumanValue string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score extractions against human reference values",
}

var evaluateFieldCmd = &cobra.Command{
	Use:   "field <project-id>",
	Short: "Evaluate one extraction against a human value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if evaluateDocumentID == "" || evaluateFieldName == "" {
			return eris.New("--document and --field are required")
		}
		eval, err := env.Service.EvaluateExtraction(cmd.Context(), args[0], evaluateDocumentID, evaluateFieldName, evaluateHumanValue)
		if err != nil {
			return err
		}
		fmt.Printf("%-30s model=%q human=%q score=%.3f match=%v\n",
			eval.FieldName, eval.ModelValue, eval.HumanValue, eval.MatchScore, eval.NormalizedMatch)
		return nil
	},
}

var evaluateReviewsCmd = &cobra.Command{
	Use:   "reviews <project-id>",
	Short: "Evaluate all reviewed extractions and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.EvaluateProjectReviews(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEvaluationReport(report)
		return nil
	},
}

var evaluateReportCmd = &cobra.Command{
	Use:   "report <project-id>",
	Short: "Print the stored evaluation report for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.EvaluationReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEvaluationReport(report)
		return nil
	},
}

func printEvaluationReport(report *model.EvaluationReport) {
	for _, fr := range report.FieldResults {
		fmt.Printf("%-30s %d/%d matched (%.1f%%)\n", fr.FieldName, fr.Matched, fr.Total, fr.Accuracy*100)
	}
	fmt.Printf("\n%d evaluations, accuracy %.1f%%, average score %.3f\n",
		report.Metrics.TotalFields, report.Metrics.FieldAccuracy*100, report.Metrics.AverageMatchScore)
}

func init() {
	evaluateFieldCmd.Flags().StringVar(&evaluateDocumentID, "document", "", "document ID")
	evaluateFieldCmd.Flags().StringVar(&evaluateFieldName, "field", "", "field name")
	evaluateFieldCmd.Flags().StringVar(&evaluateHumanValue, "value", "", "human reference value")
	evaluateCmd.AddCommand(evaluateFieldCmd, evaluateReviewsCmd, evaluateReportCmd)
	rootCmd.AddCommand(evaluateCmd)
}
