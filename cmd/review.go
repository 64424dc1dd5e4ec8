package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-review/internal/model"
)

var reviewValue string

var reviewCmd = &cobra.Command{
	Use:   "review <extraction-id> <confirm|reject|update>",
	Short: "Apply a human review decision to an extraction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var status model.ExtractionStatus
		switch args[1] {
		case "confirm":
			status = model.ExtractionStatusConfirmed
		case "reject":
			status = model.ExtractionStatusRejected
		case "update":
			if reviewValue == "" {
				return eris.New("--value is required for update")
			}
			status = model.ExtractionStatusManualUpdated
		default:
			return eris.Errorf("unknown decision: %s", args[1])
		}

		if err := env.Store.UpdateExtractionReview(cmd.Context(), args[0], status, reviewValue); err != nil {
			return err
		}
		fmt.Printf("extraction %s marked %s\n", args[0], status)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewValue, "value", "", "replacement value for update")
	rootCmd.AddCommand(reviewCmd)
}
