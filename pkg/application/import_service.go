package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

// ErrSchemaInvalid indicates an import document does not match its schema.
var ErrSchemaInvalid = errors.New("import document does not match schema")

// ImportKind names the record set an import document holds.
type ImportKind string

const (
	ImportAgents  ImportKind = "agents"
	ImportStudies ImportKind = "studies"
	ImportGoals   ImportKind = "goals"
)

const agentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name"],
    "properties": {
      "id": {"type": "string"},
      "name": {"type": "string", "minLength": 1},
      "division": {"type": "string"},
      "status": {"type": "string", "enum": ["active", "inactive", "retired"]},
      "avg_time_without_agent_minutes": {"type": "number", "minimum": 0},
      "avg_time_with_agent_minutes": {"type": "number", "minimum": 0},
      "avg_usage_count": {"type": "number", "minimum": 0},
      "usage_discount_percent": {"type": "number", "minimum": 0, "maximum": 100},
      "avg_hourly_wage": {"type": "number", "minimum": 0},
      "target_user_base": {"type": "integer", "minimum": 0},
      "current_active_users": {"type": "integer", "minimum": 0},
      "adoption_rate_percent": {"type": "number", "minimum": 0, "maximum": 100}
    }
  }
}`

const studySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["agent_id", "time_without_ai_minutes", "time_with_ai_minutes", "usage_count"],
    "properties": {
      "id": {"type": "string"},
      "agent_id": {"type": "string", "minLength": 1},
      "status": {"type": "string", "enum": ["draft", "completed"]},
      "study_date": {"type": "string"},
      "time_without_ai_minutes": {"type": "number", "minimum": 0},
      "time_with_ai_minutes": {"type": "number", "minimum": 0},
      "usage_count": {"type": "number", "minimum": 0},
      "usage_discount_percent": {"type": "number", "minimum": 0, "maximum": 100},
      "cost_per_hour": {"type": "number", "minimum": 0},
      "notes": {"type": "string"}
    }
  }
}`

const goalSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["title", "goal_type", "target_value", "target_date", "data_source"],
    "properties": {
      "id": {"type": "string"},
      "title": {"type": "string", "minLength": 1},
      "agent_id": {"type": ["string", "null"]},
      "goal_type": {"type": "string", "enum": ["time_saved", "cost_saved", "study_count", "fte_impact"]},
      "target_value": {"type": "number"},
      "current_value": {"type": "number"},
      "start_date": {"type": "string"},
      "target_date": {"type": "string"},
      "data_source": {"type": "string", "enum": ["projected", "actual"]},
      "status": {"type": "string", "enum": ["on_track", "at_risk", "behind", "achieved", "cancelled"]}
    }
  }
}`

var schemaLoaders = map[ImportKind]gojsonschema.JSONLoader{
	ImportAgents:  gojsonschema.NewStringLoader(agentSchemaJSON),
	ImportStudies: gojsonschema.NewStringLoader(studySchemaJSON),
	ImportGoals:   gojsonschema.NewStringLoader(goalSchemaJSON),
}

// ImportResult reports what an import changed.
type ImportResult struct {
	Kind     ImportKind `json:"kind"`
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	Total    int        `json:"total"`
	Assigned []string   `json:"assigned_ids,omitempty"`
}

// ImportService validates JSON or YAML documents and merges them into the workspace.
type ImportService struct {
	repo   domain.WorkspaceRepository
	audit  domain.AuditLogger
	logger *slog.Logger
}

func NewImportService(repo domain.WorkspaceRepository, audit domain.AuditLogger, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{repo: repo, audit: audit, logger: logger}
}

// Import validates data against the schema for kind and upserts the records
// by ID. Records without an ID get a generated one.
func (s *ImportService) Import(kind ImportKind, data []byte, actor string) (*ImportResult, error) {
	loader, ok := schemaLoaders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}
	if err := validateDocument(loader, data); err != nil {
		return nil, err
	}

	var (
		res *ImportResult
		err error
	)
	switch kind {
	case ImportAgents:
		res, err = s.importAgents(data)
	case ImportStudies:
		res, err = s.importStudies(data)
	case ImportGoals:
		res, err = s.importGoals(data)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported records", "kind", kind, "created", res.Created, "updated", res.Updated)
	logAudit(s.audit, s.logger, domain.ActionImport, actor, map[string]interface{}{
		"kind":    string(kind),
		"created": res.Created,
		"updated": res.Updated,
	})
	return res, nil
}

// validateDocument converts YAML input to JSON and checks it against the schema.
func validateDocument(schema gojsonschema.JSONLoader, data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(jsonDoc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaInvalid, strings.Join(issues, "; "))
	}
	return nil
}

func (s *ImportService) importAgents(data []byte) (*ImportResult, error) {
	var incoming []projection.Agent
	if err := yaml.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("decode agents: %w", err)
	}
	existing, err := s.repo.LoadAgents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	res := &ImportResult{Kind: ImportAgents}
	for _, a := range incoming {
		if a.ID == "" {
			a.ID = domain.NewRecordID()
			res.Assigned = append(res.Assigned, a.ID)
		} else if err := domain.ValidateID("agent", a.ID); err != nil {
			return nil, err
		}
		existing = upsert(existing, a, func(x projection.Agent) string { return x.ID }, res)
	}
	res.Total = len(existing)

	if err := s.repo.SaveAgents(existing); err != nil {
		return nil, fmt.Errorf("save agents: %w", err)
	}
	return res, nil
}

func (s *ImportService) importStudies(data []byte) (*ImportResult, error) {
	var incoming []projection.Study
	if err := yaml.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("decode studies: %w", err)
	}
	agents, err := s.repo.LoadAgents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		known[a.ID] = true
	}
	existing, err := s.repo.LoadStudies()
	if err != nil {
		return nil, fmt.Errorf("load studies: %w", err)
	}

	res := &ImportResult{Kind: ImportStudies}
	for _, st := range incoming {
		if !known[st.AgentID] {
			return nil, fmt.Errorf("%w: %s", projection.ErrAgentNotFound, st.AgentID)
		}
		if st.ID == "" {
			st.ID = domain.NewRecordID()
			res.Assigned = append(res.Assigned, st.ID)
		} else if err := domain.ValidateID("study", st.ID); err != nil {
			return nil, err
		}
		existing = upsert(existing, st, func(x projection.Study) string { return x.ID }, res)
	}
	res.Total = len(existing)

	if err := s.repo.SaveStudies(existing); err != nil {
		return nil, fmt.Errorf("save studies: %w", err)
	}
	return res, nil
}

func (s *ImportService) importGoals(data []byte) (*ImportResult, error) {
	var incoming []goal.Goal
	if err := yaml.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}
	existing, err := s.repo.LoadGoals()
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	res := &ImportResult{Kind: ImportGoals}
	for _, g := range incoming {
		if g.Status == "" {
			g.Status = goal.StatusOnTrack
		}
		if err := g.Validate(); err != nil {
			return nil, err
		}
		if g.ID == "" {
			g.ID = domain.NewRecordID()
			res.Assigned = append(res.Assigned, g.ID)
		} else if err := domain.ValidateID("goal", g.ID); err != nil {
			return nil, err
		}
		existing = upsert(existing, g, func(x goal.Goal) string { return x.ID }, res)
	}
	res.Total = len(existing)

	if err := s.repo.SaveGoals(existing); err != nil {
		return nil, fmt.Errorf("save goals: %w", err)
	}
	return res, nil
}

func upsert[T any](items []T, item T, id func(T) string, res *ImportResult) []T {
	key := id(item)
	for i := range items {
		if id(items[i]) == key {
			items[i] = item
			res.Updated++
			return items
		}
	}
	res.Created++
	return append(items, item)
}
