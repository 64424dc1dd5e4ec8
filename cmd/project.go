package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var projectTemplateName string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage review projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project bound to a field template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if projectTemplateName == "" {
			return eris.New("--template is required")
		}
		tpl, err := env.Store.GetTemplateByName(cmd.Context(), projectTemplateName)
		if err != nil {
			return err
		}

		project, err := env.Store.CreateProject(cmd.Context(), args[0], tpl.ID)
		if err != nil {
			return err
		}
		fmt.Printf("created project %s (%s) using template %s\n", project.Name, project.ID, tpl.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		projects, err := env.Store.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range projects {
			fmt.Printf("%s  %-30s %s\n", p.ID, p.Name, p.Status)
		}
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectTemplateName, "template", "", "field template name")
	projectCmd.AddCommand(projectCreateCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
