package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/application"
)

var importJSONOutput bool

var importCmd = &cobra.Command{
	Use:       "import <agents|studies|goals> <file>",
	Short:     "Import agents, studies or goals from a JSON or YAML file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(application.ImportAgents), string(application.ImportStudies), string(application.ImportGoals)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := application.ImportKind(strings.ToLower(args[0]))
		switch kind {
		case application.ImportAgents, application.ImportStudies, application.ImportGoals:
		default:
			return fmt.Errorf("unknown import kind %q (want agents, studies or goals)", args[0])
		}

		// #nosec G304 -- The file is chosen by the operator
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}

		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		result, err := services.Import.Import(kind, data, currentActor())
		if err != nil {
			return MapError(fmt.Errorf("import %s: %w", kind, err))
		}

		out := cmd.OutOrStdout()
		if importJSONOutput {
			return writeJSON(out, result)
		}
		fmt.Fprintf(out, "Imported %d %s (%d created, %d updated)\n", result.Total, result.Kind, result.Created, result.Updated)
		for _, id := range result.Assigned {
			fmt.Fprintf(out, "  assigned id %s\n", id)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importJSONOutput, "json", false, "Output in JSON format")
	RootCmd.AddCommand(importCmd)
}
