package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-review/internal/model"
)

var (
	annotateComment      string
	annotateBy           string
	annotateExtractionID string
	annotateProjectID    string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Manage reviewer comments on extractions",
}

var annotateAddCmd = &cobra.Command{
	Use:   "add <extraction-id>",
	Short: "Attach a comment to an extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if annotateComment == "" {
			return eris.New("--comment is required")
		}
		a := &model.Annotation{
			ExtractionID: args[0],
			Comment:      annotateComment,
			AnnotatedBy:  annotateBy,
		}
		if err := env.Store.CreateAnnotation(cmd.Context(), a); err != nil {
			return err
		}
		fmt.Printf("annotation %s added to extraction %s\n", a.ID, a.ExtractionID)
		return nil
	},
}

var annotateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List annotations for an extraction or a whole project",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var annotations []model.Annotation
		switch {
		case annotateExtractionID != "":
			annotations, err = env.Store.ListExtractionAnnotations(cmd.Context(), annotateExtractionID)
		case annotateProjectID != "":
			annotations, err = env.Store.ListProjectAnnotations(cmd.Context(), annotateProjectID)
		default:
			return eris.New("one of --extraction or --project is required")
		}
		if err != nil {
			return err
		}

		for _, a := range annotations {
			fmt.Printf("%s  %-12s %s  %s\n", a.ID, a.AnnotatedBy, a.CreatedAt.Format("2006-01-02 15:04"), a.Comment)
		}
		return nil
	},
}

var annotateUpdateCmd = &cobra.Command{
	Use:   "update <annotation-id>",
	Short: "Replace an annotation's comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if annotateComment == "" {
			return eris.New("--comment is required")
		}
		if err := env.Store.UpdateAnnotation(cmd.Context(), args[0], annotateComment); err != nil {
			return err
		}
		fmt.Printf("annotation %s updated\n", args[0])
		return nil
	},
}

var annotateDeleteCmd = &cobra.Command{
	Use:   "delete <annotation-id>",
	Short: "Delete an annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeleteAnnotation(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("annotation %s deleted\n", args[0])
		return nil
	},
}

func init() {
	annotateAddCmd.Flags().StringVar(&annotateComment, "comment", "", "comment text")
	annotateAddCmd.Flags().StringVar(&annotateBy, "by", "reviewer", "author name")
	annotateListCmd.Flags().StringVar(&annotateExtractionID, "extraction", "", "extraction ID")
	annotateListCmd.Flags().StringVar(&annotateProjectID, "project", "", "project ID")
	annotateUpdateCmd.Flags().StringVar(&annotateComment, "comment", "", "comment text")
	annotateCmd.AddCommand(annotateAddCmd, annotateListCmd, annotateUpdateCmd, annotateDeleteCmd)
	rootCmd.AddCommand(annotateCmd)
}
