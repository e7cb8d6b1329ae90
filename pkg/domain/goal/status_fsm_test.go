package goal_test

import (
	"errors"
	"testing"

	"github.com/agentroi/runrate/pkg/domain/goal"
)

func TestStatusMachine(t *testing.T) {
	fsm, err := goal.NewStatusMachine(goal.StatusOnTrack, "g1", nil)
	if err != nil {
		t.Fatalf("NewStatusMachine() error = %v", err)
	}
	if fsm.Current() != goal.StatusOnTrack {
		t.Errorf("Current() = %s, want on_track", fsm.Current())
	}

	if err := fsm.Send(goal.EventRisk); err != nil {
		t.Errorf("flag_risk failed: %v", err)
	}
	if fsm.Current() != goal.StatusAtRisk {
		t.Errorf("Current() = %s, want at_risk", fsm.Current())
	}

	if err := fsm.Send("invalid"); err == nil {
		t.Error("expected error on unknown event")
	}

	if err := fsm.Send(goal.EventReopen); !errors.Is(err, goal.ErrInvalidTransition) {
		t.Errorf("reopen from open state: err = %v, want ErrInvalidTransition", err)
	}
}

func TestStatusMachine_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    goal.Status
		to      goal.Status
		wantErr bool
	}{
		{"on track to at risk", goal.StatusOnTrack, goal.StatusAtRisk, false},
		{"at risk to behind", goal.StatusAtRisk, goal.StatusBehind, false},
		{"behind to on track", goal.StatusBehind, goal.StatusOnTrack, false},
		{"on track to behind", goal.StatusOnTrack, goal.StatusBehind, false},
		{"achieve", goal.StatusAtRisk, goal.StatusAchieved, false},
		{"cancel", goal.StatusBehind, goal.StatusCancelled, false},
		{"reopen achieved", goal.StatusAchieved, goal.StatusOnTrack, false},
		{"reopen cancelled", goal.StatusCancelled, goal.StatusOnTrack, false},
		{"achieved to behind", goal.StatusAchieved, goal.StatusBehind, true},
		{"cancelled to achieved", goal.StatusCancelled, goal.StatusAchieved, true},
		{"same status", goal.StatusBehind, goal.StatusBehind, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsm, err := goal.NewStatusMachine(tt.from, "g", nil)
			if err != nil {
				t.Fatalf("NewStatusMachine() error = %v", err)
			}
			err = fsm.TransitionTo(tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, goal.ErrInvalidTransition) {
					t.Errorf("error %v should match ErrInvalidTransition", err)
				}
				if fsm.Current() != tt.from {
					t.Errorf("state changed to %s on rejected transition", fsm.Current())
				}
				return
			}
			if fsm.Current() != tt.to {
				t.Errorf("Current() = %s, want %s", fsm.Current(), tt.to)
			}
		})
	}
}

func TestStatusMachine_Guard(t *testing.T) {
	deny := func(goalID, event string) bool { return event != goal.EventAchieve }
	fsm, err := goal.NewStatusMachine(goal.StatusOnTrack, "g2", deny)
	if err != nil {
		t.Fatalf("NewStatusMachine() error = %v", err)
	}

	err = fsm.TransitionTo(goal.StatusAchieved)
	var te *goal.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransitionError", err)
	}
	if te.GoalID != "g2" || te.To != goal.StatusAchieved {
		t.Errorf("TransitionError = %+v", te)
	}
	if fsm.Current() != goal.StatusOnTrack {
		t.Errorf("state changed despite failing guard")
	}

	if err := fsm.TransitionTo(goal.StatusCancelled); err != nil {
		t.Errorf("unguarded cancel failed: %v", err)
	}
}

func TestNewStatusMachine_Defaults(t *testing.T) {
	fsm, err := goal.NewStatusMachine("", "g3", nil)
	if err != nil {
		t.Fatalf("NewStatusMachine() error = %v", err)
	}
	if fsm.Current() != goal.StatusOnTrack {
		t.Errorf("Current() = %s, want on_track", fsm.Current())
	}

	if _, err := goal.NewStatusMachine("paused", "g4", nil); !errors.Is(err, goal.ErrInvalidGoal) {
		t.Errorf("unknown status: err = %v, want ErrInvalidGoal", err)
	}
}
