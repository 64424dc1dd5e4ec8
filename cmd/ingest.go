package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var ingestProjectID string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.txt>...",
	Short: "Ingest plain-text documents into a project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if ingestProjectID == "" {
			return eris.New("--project is required")
		}

		for _, path := range args {
			text, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read %s", path)
			}
			doc, err := env.Service.IngestDocument(cmd.Context(), ingestProjectID, filepath.Base(path), string(text))
			if err != nil {
				return err
			}
			fmt.Printf("ingested %s as %s\n", doc.Filename, doc.ID)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProjectID, "project", "", "project ID")
	rootCmd.AddCommand(ingestCmd)
}
