package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/foundry-mcp/foundry/internal/foundry"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vision, _ := cmd.Flags().GetString("vision")
		techStack, _ := cmd.Flags().GetString("tech-stack")
		summary, _ := cmd.Flags().GetString("summary")

		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		proj, err := facade.CreateProject(cmd.Context(), foundry.ProjectConfig{
			Name:      args[0],
			Vision:    vision,
			TechStack: techStack,
			Summary:   summary,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created project %q\n", proj.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		projects, err := facade.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("no projects")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%-30s %3d specs  updated %s\n", p.Name, p.SpecCount, humanize.Time(p.LastModified))
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a project's vision, tech stack, and summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		proj, err := facade.LoadProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (created %s)\n\n", proj.Name, humanize.Time(proj.CreatedAt))
		fmt.Println("## Vision\n" + proj.Vision)
		fmt.Println("\n## Tech Stack\n" + proj.TechStack)
		fmt.Println("\n## Summary\n" + proj.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd)

	projectCreateCmd.Flags().String("vision", "", "project vision document")
	projectCreateCmd.Flags().String("tech-stack", "", "project tech stack document")
	projectCreateCmd.Flags().String("summary", "", "project summary document")
}
