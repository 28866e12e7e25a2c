package cli

import (
	"context"
	"fmt"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
	Long:  `Add, list, and archive construction projects.`,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		code, _ := cmd.Flags().GetString("code")

		project := domain.NewProject(args[0], code)
		if err := project.Validate(); err != nil {
			return err
		}

		if err := appInstance.ProjectRepo.Create(ctx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		fmt.Printf("✓ Project created: %s (#%d)\n", project.Name, project.ID)
		return nil
	},
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		includeArchived, _ := cmd.Flags().GetBool("all")

		projects, err := appInstance.ProjectRepo.List(ctx, includeArchived)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found")
			return nil
		}

		fmt.Printf("%-5s %-30s %-12s %s\n", "ID", "Name", "Code", "Status")
		fmt.Println("------------------------------------------------------------")
		for _, project := range projects {
			status := "active"
			if project.IsArchived {
				status = "archived"
			}
			fmt.Printf("%-5d %-30s %-12s %s\n",
				project.ID,
				truncate(project.Name, 30),
				project.Code,
				status,
			)
		}

		fmt.Printf("\nTotal: %d project(s)\n", len(projects))
		return nil
	},
}

var projectsArchiveCmd = &cobra.Command{
	Use:   "archive [id_or_name]",
	Short: "Archive a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		if err := appInstance.ProjectRepo.Archive(ctx, id); err != nil {
			return fmt.Errorf("failed to archive project: %w", err)
		}

		fmt.Printf("✓ Project #%d archived\n", id)
		return nil
	},
}

func init() {
	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsArchiveCmd)

	projectsAddCmd.Flags().String("code", "", "Short project code")
	projectsListCmd.Flags().Bool("all", false, "Include archived projects")
}
