package application_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/storage"
)

func TestAuditService_Log(t *testing.T) {
	tempDir := t.TempDir()

	repo := storage.NewFilesystemRepository(tempDir)
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	service := application.NewAuditService(repo)

	if err := service.Log("test.action", "tester", map[string]interface{}{"key": "val"}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := service.Log("test.second", "tester", nil); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, ".runrate", "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "test.action") {
		t.Error("Event not logged")
	}

	events, err := service.GetTimeline()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("timeline length = %d, want 2", len(events))
	}
	if events[1].PrevHash != events[0].Hash {
		t.Error("second event is not chained to the first")
	}

	violations, err := service.VerifyIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Errorf("violations = %v, want none", violations)
	}
}

func TestAuditService_Error(t *testing.T) {
	repo := &MockRepo{SaveError: errors.New("audit fail")}
	service := application.NewAuditService(repo)

	if err := service.Log("act", "actor", nil); err == nil {
		t.Error("expected error on save fail")
	}

	repo = &MockRepo{LoadError: errors.New("read fail")}
	service = application.NewAuditService(repo)
	if err := service.Log("act", "actor", nil); err == nil {
		t.Error("expected error on load fail")
	}
	if _, err := service.VerifyIntegrity(); err == nil {
		t.Error("expected error from VerifyIntegrity on load fail")
	}
}

func TestAuditService_VerifyIntegrity(t *testing.T) {
	now := time.Now()
	first := domain.Event{
		ID:        "e1",
		Timestamp: now.Add(-2 * time.Hour),
		Action:    domain.ActionImport,
		Actor:     "tester",
	}
	first.Hash = first.CalculateHash()

	second := domain.Event{
		ID:        "e2",
		Timestamp: now.Add(-1 * time.Hour),
		Action:    domain.ActionGoalStatus,
		Actor:     "tester",
		PrevHash:  first.Hash,
	}
	second.Hash = second.CalculateHash()

	repo := &MockRepo{Events: []domain.Event{first, second}}
	service := application.NewAuditService(repo)

	violations, err := service.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}

	repo.Events[1].Actor = "intruder"
	violations, err = service.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity failed: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a violation after tampering")
	}
}
