package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/alert"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

const RunrateDir = ".runrate"
const ConfigFile = "config.yaml"
const AgentsFile = "agents.yaml"
const StudiesFile = "studies.yaml"
const GoalsFile = "goals.yaml"
const SnapshotsFile = "snapshots.jsonl"
const SnapshotsDBFile = "snapshots.db"
const EventsFile = "events.jsonl"
const WebhookFile = "webhooks.yaml"
const DeadLetterFile = "deadletters.jsonl"

// ErrNotInitialized indicates the .runrate directory does not exist.
var ErrNotInitialized = errors.New("workspace not initialized")

var _ domain.WorkspaceRepository = (*FilesystemRepository)(nil)

// FilesystemRepository stores workspace records as YAML and JSONL files under .runrate/.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// Dir returns the .runrate directory.
func (r *FilesystemRepository) Dir() string {
	return filepath.Join(r.root, RunrateDir)
}

// ResolvePath ensures the path is a direct child of .runrate/ and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := r.Dir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))
	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(r.Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", RunrateDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.Dir())
	return err == nil
}

func (r *FilesystemRepository) LoadAgents() ([]projection.Agent, error) {
	return loadYAML[[]projection.Agent](r, AgentsFile, "agents")
}

func (r *FilesystemRepository) SaveAgents(agents []projection.Agent) error {
	return r.saveYAML(AgentsFile, "agents", agents)
}

func (r *FilesystemRepository) LoadStudies() ([]projection.Study, error) {
	return loadYAML[[]projection.Study](r, StudiesFile, "studies")
}

func (r *FilesystemRepository) SaveStudies(studies []projection.Study) error {
	return r.saveYAML(StudiesFile, "studies", studies)
}

func (r *FilesystemRepository) LoadGoals() ([]goal.Goal, error) {
	return loadYAML[[]goal.Goal](r, GoalsFile, "goals")
}

func (r *FilesystemRepository) SaveGoals(goals []goal.Goal) error {
	return r.saveYAML(GoalsFile, "goals", goals)
}

// SaveWebhookConfig saves the alert webhook configuration to .runrate/webhooks.yaml.
func (r *FilesystemRepository) SaveWebhookConfig(cfg *alert.WebhookConfig) error {
	return r.saveYAML(WebhookFile, "webhook config", cfg)
}

// LoadWebhookConfig loads .runrate/webhooks.yaml. A missing file yields an empty config.
func (r *FilesystemRepository) LoadWebhookConfig() (*alert.WebhookConfig, error) {
	cfg, err := loadYAML[alert.WebhookConfig](r, WebhookFile, "webhook config")
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *FilesystemRepository) saveYAML(filename, what string, v interface{}) error {
	if !r.IsInitialized() {
		return ErrNotInitialized
	}
	path, err := r.ResolvePath(filename)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	return nil
}

// loadYAML reads a YAML file with retries. A missing file yields the zero value.
func loadYAML[T any](r *FilesystemRepository, filename, what string) (T, error) {
	retryer := retry.New[T](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (T, error) {
		var out T
		path, err := r.ResolvePath(filename)
		if err != nil {
			return out, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return out, nil
			}
			return out, fmt.Errorf("failed to read %s file: %w", what, err)
		}

		if err := yaml.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("failed to unmarshal %s: %w", what, err)
		}
		return out, nil
	})
}
