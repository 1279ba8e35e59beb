package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"careersync/internal/database"
	"careersync/internal/llm"
	"careersync/internal/models"
	"careersync/internal/services"
)

const workerTestResponse = `{
  "cvRating": 70,
  "skills": ["Go"],
  "experienceLevel": "Junior",
  "missingSkills": ["Docker"],
  "learningRoadmap": [
    {"week": 1, "skill": "Docker", "course": "Docker 101", "platform": "Coursera", "hours": 4, "link": "https://example.com"}
  ],
  "jobMatches": [
    {"title": "Go Developer", "company": "Acme", "matchScore": 80, "salary": "$70,000", "location": "Remote"}
  ]
}`

// fakeClient returns scripted responses in order, repeating the last one.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, messages []llm.Message, opts *llm.CompletionOptions) (string, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	if f.errs != nil && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.responses[i], nil
}

func setupWorkerTest(t *testing.T) (*gorm.DB, *services.AnalysisService, *services.ReferralService, *models.CVAnalysis) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.MigrateAll(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	user := models.User{Email: "worker@example.com", Name: "W", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	analyses := services.NewAnalysisService(db, 7*24*time.Hour)
	referrals := services.NewReferralService(db)

	_, err = analyses.CreateAnalysis(user.ID, "cv.pdf", "cv/key.pdf", "Some CV text for the worker.", nil)
	if err != nil {
		t.Fatalf("CreateAnalysis failed: %v", err)
	}

	claimed, err := analyses.NextPending()
	if err != nil || claimed == nil {
		t.Fatalf("NextPending failed: %v", err)
	}

	return db, analyses, referrals, claimed
}

func TestProcess_Success(t *testing.T) {
	db, analyses, referrals, claimed := setupWorkerTest(t)

	client := &fakeClient{responses: []string{workerTestResponse}}
	worker := NewAnalysisWorker(analyses, referrals, client, time.Second, 3)

	worker.Process(context.Background(), claimed)

	var stored models.CVAnalysis
	if err := db.First(&stored, claimed.ID).Error; err != nil {
		t.Fatalf("failed to load analysis: %v", err)
	}
	if stored.Status != models.AnalysisStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", stored.Status, stored.Error)
	}
	if stored.CVRating == nil || *stored.CVRating != 70 {
		t.Errorf("expected rating 70, got %v", stored.CVRating)
	}
	if stored.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", stored.Attempts)
	}
	if client.calls != 1 {
		t.Errorf("expected 1 AI call, got %d", client.calls)
	}
}

func TestProcess_RetriesMalformedOutput(t *testing.T) {
	db, analyses, referrals, claimed := setupWorkerTest(t)

	client := &fakeClient{responses: []string{"not json at all", workerTestResponse}}
	worker := NewAnalysisWorker(analyses, referrals, client, time.Second, 3)

	worker.Process(context.Background(), claimed)

	var stored models.CVAnalysis
	db.First(&stored, claimed.ID)
	if stored.Status != models.AnalysisStatusCompleted {
		t.Fatalf("expected completed after retry, got %s", stored.Status)
	}
	if stored.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", stored.Attempts)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 AI calls, got %d", client.calls)
	}
}

func TestProcess_FailsAfterMaxRetries(t *testing.T) {
	db, analyses, referrals, claimed := setupWorkerTest(t)

	client := &fakeClient{responses: []string{"still not json"}}
	worker := NewAnalysisWorker(analyses, referrals, client, time.Second, 1)

	worker.Process(context.Background(), claimed)

	var stored models.CVAnalysis
	db.First(&stored, claimed.ID)
	if stored.Status != models.AnalysisStatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.Error == "" {
		t.Error("expected terminal error message")
	}
	if stored.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", stored.Attempts)
	}
}

func TestProcess_AICallErrorIsRetried(t *testing.T) {
	db, analyses, referrals, claimed := setupWorkerTest(t)

	client := &fakeClient{
		responses: []string{"", workerTestResponse},
		errs:      []error{fmt.Errorf("upstream timeout"), nil},
	}
	worker := NewAnalysisWorker(analyses, referrals, client, time.Second, 3)

	worker.Process(context.Background(), claimed)

	var stored models.CVAnalysis
	db.First(&stored, claimed.ID)
	if stored.Status != models.AnalysisStatusCompleted {
		t.Fatalf("expected completed after transient error, got %s", stored.Status)
	}
}

func TestProcess_MarksReferralScan(t *testing.T) {
	db, analyses, referrals, claimed := setupWorkerTest(t)

	// The claimed analysis belongs to a referred user with a pending
	// referral; completion should flag the scan condition.
	referrer := models.User{Email: "ref@example.com", Name: "R", PasswordHash: "x"}
	db.Create(&referrer)
	code, err := referrals.EnsureReferralCode(referrer.ID)
	if err != nil {
		t.Fatalf("EnsureReferralCode failed: %v", err)
	}
	if _, err := referrals.CreateReferral(claimed.UserID, code.Code, "1.1.1.1", nil); err != nil {
		t.Fatalf("CreateReferral failed: %v", err)
	}

	client := &fakeClient{responses: []string{workerTestResponse}}
	worker := NewAnalysisWorker(analyses, referrals, client, time.Second, 3)

	worker.Process(context.Background(), claimed)

	var referral models.Referral
	if err := db.Where("referred_user_id = ?", claimed.UserID).First(&referral).Error; err != nil {
		t.Fatalf("failed to load referral: %v", err)
	}
	if !referral.CVScanCompleted {
		t.Error("expected referral cv_scan_completed after analysis completion")
	}
}
