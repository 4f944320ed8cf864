package application

import (
	"context"
	"errors"
	"testing"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/mission"
	"github.com/skyfield/missionforge/pkg/domain/missiontype"
)

func newMissionTypeService(f *fixture) *MissionTypeService {
	return NewMissionTypeService(f.types, f.projects, f.publisher)
}

func TestMissionTypeService_ListSeeded(t *testing.T) {
	f := newFixture(t)
	svc := newMissionTypeService(f)

	names, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 3 {
		t.Errorf("List() = %v, want the three built-ins", names)
	}
}

func TestMissionTypeService_DeleteBlockedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	svc := newMissionTypeService(f)
	projects := newProjectService(f)
	ctx := context.Background()

	p, _ := projects.CreateProject(ctx, "alpha")
	if _, err := projects.AddMission(ctx, p.ID, mission.Mission{Type: "locate_and_track"}); err != nil {
		t.Fatalf("AddMission() error = %v", err)
	}

	if err := svc.Delete(ctx, "locate_and_track"); !errors.Is(err, domain.ErrInUse) {
		t.Fatalf("Delete() error = %v, want ErrInUse", err)
	}
	if _, err := svc.Get(ctx, "locate_and_track"); err != nil {
		t.Errorf("configuration was removed despite being in use: %v", err)
	}

	if err := projects.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if err := svc.Delete(ctx, "locate_and_track"); err != nil {
		t.Errorf("Delete() after release error = %v", err)
	}
}

func TestMissionTypeService_DraftLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := newMissionTypeService(f)
	ctx := context.Background()

	cfg, err := svc.StartDraft(ctx, "patrol_perimeter")
	if err != nil {
		t.Fatalf("StartDraft() error = %v", err)
	}
	if cfg.Name != "patrol_perimeter" || len(cfg.States) != 0 {
		t.Errorf("blank draft = %+v", cfg)
	}

	edits := []func(*missiontype.Draft) error{
		func(d *missiontype.Draft) error { return d.AddState("execution", missiontype.State{Prompt: "patrol"}) },
		func(d *missiontype.Draft) error { return d.AddState("end", missiontype.State{}) },
		func(d *missiontype.Draft) error {
			return d.AddTransition(missiontype.Transition{From: "execution", To: "end", Condition: "True"})
		},
	}
	for _, edit := range edits {
		if err := svc.EditDraft(ctx, "patrol_perimeter", edit); err != nil {
			t.Fatalf("EditDraft() error = %v", err)
		}
	}

	// Invariant-violating edits are rejected and leave the store untouched.
	err = svc.EditDraft(ctx, "patrol_perimeter", func(d *missiontype.Draft) error {
		return d.AddTransition(missiontype.Transition{From: "execution", To: "nowhere", Condition: "x"})
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad transition error = %v, want ErrValidation", err)
	}
	if _, err := svc.Get(ctx, "patrol_perimeter"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("draft leaked to disk before commit: %v", err)
	}

	committed, err := svc.CommitDraft(ctx, "patrol_perimeter")
	if err != nil {
		t.Fatalf("CommitDraft() error = %v", err)
	}
	if committed.InitialState != "execution" {
		t.Errorf("InitialState = %q, want execution", committed.InitialState)
	}

	stored, err := svc.Get(ctx, "patrol_perimeter")
	if err != nil {
		t.Fatalf("Get() after commit error = %v", err)
	}
	if len(stored.Transitions) != 1 {
		t.Errorf("stored %d transitions, want 1", len(stored.Transitions))
	}

	// Session is closed after commit.
	if _, err := svc.DraftConfiguration(ctx, "patrol_perimeter"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DraftConfiguration() after commit error = %v, want ErrNotFound", err)
	}
}

func TestMissionTypeService_DraftOverExistingType(t *testing.T) {
	f := newFixture(t)
	svc := newMissionTypeService(f)
	ctx := context.Background()

	cfg, err := svc.StartDraft(ctx, "locate_and_report")
	if err != nil {
		t.Fatalf("StartDraft() error = %v", err)
	}
	if len(cfg.States) == 0 {
		t.Fatal("draft over a stored type should start from its states")
	}

	if _, err := svc.StartDraft(ctx, "locate_and_report"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second StartDraft() error = %v, want ErrConflict", err)
	}

	if err := svc.DiscardDraft(ctx, "locate_and_report"); err != nil {
		t.Fatalf("DiscardDraft() error = %v", err)
	}
	stored, _ := svc.Get(ctx, "locate_and_report")
	if stored == nil || len(stored.States) != len(cfg.States) {
		t.Error("discard must leave the stored configuration untouched")
	}
}

func TestMissionTypeService_CommitInvalidDraftFails(t *testing.T) {
	f := newFixture(t)
	svc := newMissionTypeService(f)
	ctx := context.Background()

	if _, err := svc.StartDraft(ctx, "empty_machine"); err != nil {
		t.Fatalf("StartDraft() error = %v", err)
	}
	if _, err := svc.CommitDraft(ctx, "empty_machine"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CommitDraft() on empty draft error = %v, want ErrValidation", err)
	}
	// The failed commit keeps the session open for repair.
	if _, err := svc.DraftConfiguration(ctx, "empty_machine"); err != nil {
		t.Errorf("session lost after failed commit: %v", err)
	}
}
