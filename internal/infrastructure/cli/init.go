package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/internal/infrastructure/config"
	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
	"github.com/agentroi/runrate/pkg/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new runrate workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if repo.IsInitialized() {
			return fmt.Errorf("workspace already initialized at %s", repo.Dir())
		}
		if err := repo.Initialize(); err != nil {
			return err
		}

		if err := config.Save(root, config.Default()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		if err := repo.SaveAgents([]projection.Agent{}); err != nil {
			return err
		}
		if err := repo.SaveStudies([]projection.Study{}); err != nil {
			return err
		}
		if err := repo.SaveGoals([]goal.Goal{}); err != nil {
			return err
		}

		audit := application.NewAuditService(repo)
		if err := audit.Log(domain.ActionWorkspaceInit, currentActor(), map[string]interface{}{"root": root}); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized runrate workspace in %s\n", repo.Dir())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
