package services

import (
	"testing"
	"time"
)

func TestInterviewCRUD(t *testing.T) {
	db := setupTestDB(t)
	service := NewInterviewService(db)
	user := createTestUser(t, db, "a@example.com")

	input := &InterviewInput{
		CompanyName:   "Acme",
		Position:      "Backend Engineer",
		InterviewDate: time.Now().Add(48 * time.Hour),
		Rating:        7,
		Status:        "scheduled",
	}

	interview, err := service.Create(user.ID, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := service.List(user.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 interview, got %d", len(list))
	}

	rating := 9
	status := "passed"
	updated, err := service.Update(interview.ID, user.ID, &InterviewUpdate{Rating: &rating, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Rating != 9 || updated.Status != "passed" {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := service.Delete(interview.ID, user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, _ = service.List(user.ID)
	if len(list) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(list))
	}
}

func TestInterviewRatingBounds(t *testing.T) {
	db := setupTestDB(t)
	service := NewInterviewService(db)
	user := createTestUser(t, db, "a@example.com")

	input := &InterviewInput{
		CompanyName:   "Acme",
		Position:      "Engineer",
		InterviewDate: time.Now(),
		Rating:        11,
		Status:        "scheduled",
	}
	if _, err := service.Create(user.ID, input); err == nil {
		t.Error("expected error for rating above 10")
	}

	input.Rating = 0
	if _, err := service.Create(user.ID, input); err == nil {
		t.Error("expected error for rating below 1")
	}
}

func TestInterviewOwnership(t *testing.T) {
	db := setupTestDB(t)
	service := NewInterviewService(db)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	interview, err := service.Create(owner.ID, &InterviewInput{
		CompanyName:   "Acme",
		Position:      "Engineer",
		InterviewDate: time.Now(),
		Rating:        5,
		Status:        "scheduled",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := service.Delete(interview.ID, other.ID); err == nil {
		t.Error("expected error deleting someone else's interview")
	}

	status := "passed"
	if _, err := service.Update(interview.ID, other.ID, &InterviewUpdate{Status: &status}); err == nil {
		t.Error("expected error updating someone else's interview")
	}
}
