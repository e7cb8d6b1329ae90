package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentroi/runrate/internal/infrastructure/config"
	"github.com/agentroi/runrate/internal/infrastructure/wiring"
)

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir(ctx context.Context) (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return buildServices(ctx, root)
}

// buildServices wires the services with the logger installed by the root command.
func buildServices(ctx context.Context, root string) (*wiring.AppServices, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, MapError(fmt.Errorf("load config: %w", err))
	}
	services, err := wiring.BuildAppServicesWithConfig(ctx, root, cfg, slog.Default())
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to build services: %w", err))
	}
	return services, nil
}

func currentActor() string {
	if actor := os.Getenv("USER"); actor != "" {
		return actor
	}
	return "cli"
}
