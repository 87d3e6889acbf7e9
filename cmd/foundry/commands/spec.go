package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/foundry-mcp/foundry/internal/foundry"
	"github.com/spf13/cobra"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Manage specs within a project",
}

var specCreateCmd = &cobra.Command{
	Use:   "create PROJECT FEATURE",
	Short: "Create a new spec",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("spec")
		notes, _ := cmd.Flags().GetString("notes")
		tasks, _ := cmd.Flags().GetString("tasks")

		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		created, err := facade.CreateSpec(cmd.Context(), foundry.SpecConfig{
			ProjectName: args[0],
			FeatureName: args[1],
			Spec:        spec,
			Notes:       notes,
			Tasks:       tasks,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created spec %q in project %q\n", created.Name, created.ProjectName)
		return nil
	},
}

var specListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List specs in a project, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contains, _ := cmd.Flags().GetString("contains")
		limit, _ := cmd.Flags().GetInt("limit")

		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		specs, err := facade.ListSpecsFiltered(cmd.Context(), args[0], foundry.SpecFilter{
			FeatureNameContains: contains,
			Limit:               limit,
		})
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			fmt.Println("no specs")
			return nil
		}
		for _, s := range specs {
			fmt.Printf("%-40s %s\n", s.Name, humanize.Time(s.CreatedAt))
		}
		return nil
	},
}

var specShowCmd = &cobra.Command{
	Use:   "show PROJECT QUERY",
	Short: "Show a spec, resolving QUERY by fuzzy match against spec names",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		spec, err := facade.LoadSpecWithFuzzy(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s (created %s)\n\n", spec.Name, humanize.Time(spec.CreatedAt))
		fmt.Println("## Spec\n" + spec.Spec)
		fmt.Println("\n## Notes\n" + spec.Notes)
		fmt.Println("\n## Tasks\n" + spec.Tasks)
		return nil
	},
}

var specValidateCmd = &cobra.Command{
	Use:   "validate PROJECT SPEC",
	Short: "Validate a spec's three documents",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := facade.ValidateSpecFiles(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(result.Summary())
		for _, msg := range result.ValidationErrors {
			fmt.Println("  -", msg)
		}
		if !result.IsValid() {
			return fmt.Errorf("spec %q failed validation", args[1])
		}
		return nil
	},
}

var specDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT SPEC",
	Short: "Delete a spec",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, cleanup, err := buildFacade(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := facade.DeleteSpec(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("deleted spec %q\n", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(specCmd)
	specCmd.AddCommand(specCreateCmd, specListCmd, specShowCmd, specValidateCmd, specDeleteCmd)

	specCreateCmd.Flags().String("spec", "", "spec document content")
	specCreateCmd.Flags().String("notes", "", "notes document content")
	specCreateCmd.Flags().String("tasks", "", "task list document content (markdown checkboxes)")

	specListCmd.Flags().String("contains", "", "only list specs whose feature name contains this substring")
	specListCmd.Flags().Int("limit", 0, "limit the number of specs listed (0 = no limit)")
}
