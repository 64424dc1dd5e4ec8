package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/contract-review/internal/template"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage field templates",
}

var templateLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Load a field template from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		tpl, err := template.Load(args[0])
		if err != nil {
			return err
		}
		if err := env.Store.SaveTemplate(cmd.Context(), tpl); err != nil {
			return err
		}
		fmt.Printf("saved template %s (%s) with %d fields\n", tpl.Name, tpl.ID, len(tpl.Fields))
		return nil
	},
}

var templateValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Validate a field template file without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := template.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("template %s is valid: %d fields\n", tpl.Name, len(tpl.Fields))
		for _, f := range tpl.Fields {
			fmt.Printf("  %-30s %s\n", f.Name, f.Type)
		}
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		tpls, err := env.Store.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range tpls {
			fmt.Printf("%s  %-30s v%d  %d fields\n", t.ID, t.Name, t.Version, len(t.Fields))
		}
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateLoadCmd, templateValidateCmd, templateListCmd)
	rootCmd.AddCommand(templateCmd)
}
