package jobs

import (
	"context"
	"log"
	"time"

	"careersync/internal/llm"
	"careersync/internal/models"
	"careersync/internal/services"
)

// AnalysisWorker drains the queue of pending CV analyses. Each analysis is
// claimed atomically, walked through the progress states, and completed or
// failed; the client only ever polls the record's status.
type AnalysisWorker struct {
	analyses   *services.AnalysisService
	referrals  *services.ReferralService
	client     llm.Client
	interval   time.Duration
	maxRetries int
	stopChan   chan struct{}
}

func NewAnalysisWorker(analyses *services.AnalysisService, referrals *services.ReferralService, client llm.Client, interval time.Duration, maxRetries int) *AnalysisWorker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &AnalysisWorker{
		analyses:   analyses,
		referrals:  referrals,
		client:     client,
		interval:   interval,
		maxRetries: maxRetries,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the polling loop.
func (w *AnalysisWorker) Start() {
	log.Printf("[AnalysisWorker] Starting (interval: %v, max retries: %d)", w.interval, w.maxRetries)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.drainQueue()
		case <-w.stopChan:
			log.Println("[AnalysisWorker] Stopping")
			return
		}
	}
}

// Stop stops the polling loop.
func (w *AnalysisWorker) Stop() {
	close(w.stopChan)
}

func (w *AnalysisWorker) drainQueue() {
	for {
		select {
		case <-w.stopChan:
			return
		default:
		}

		analysis, err := w.analyses.NextPending()
		if err != nil {
			log.Printf("[AnalysisWorker] Error claiming analysis: %v", err)
			return
		}
		if analysis == nil {
			return
		}

		w.Process(context.Background(), analysis)
	}
}

// Process runs the full pipeline for one claimed analysis. Malformed AI
// output is retried with backoff before the record is marked failed.
func (w *AnalysisWorker) Process(ctx context.Context, analysis *models.CVAnalysis) {
	location := ""
	if analysis.UserLocation != nil {
		location = *analysis.UserLocation
	}
	prompt := llm.BuildAnalysisPrompt(analysis.ExtractedText, location)

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if err := w.analyses.IncrementAttempts(analysis.ID); err != nil {
			log.Printf("[AnalysisWorker] Error recording attempt for analysis %d: %v", analysis.ID, err)
		}

		if err := w.analyses.SetProgress(analysis.ID, models.AnalysisStatusAnalyzingExperience, "Analyzing your experience..."); err != nil {
			log.Printf("[AnalysisWorker] Error updating progress for analysis %d: %v", analysis.ID, err)
		}

		content, err := w.client.Complete(ctx, []llm.Message{
			{Role: "user", Content: prompt},
		}, nil)
		if err != nil {
			lastErr = err
			log.Printf("[AnalysisWorker] AI call failed for analysis %d (attempt %d/%d): %v", analysis.ID, attempt, w.maxRetries, err)
			if attempt < w.maxRetries && !w.sleepBackoff(attempt) {
				break
			}
			continue
		}

		if err := w.analyses.SetProgress(analysis.ID, models.AnalysisStatusGeneratingRoadmap, "Generating your learning roadmap..."); err != nil {
			log.Printf("[AnalysisWorker] Error updating progress for analysis %d: %v", analysis.ID, err)
		}

		payload, err := llm.ParseAnalysis(content)
		if err != nil {
			lastErr = err
			log.Printf("[AnalysisWorker] Rejected AI response for analysis %d (attempt %d/%d): %v", analysis.ID, attempt, w.maxRetries, err)
			if attempt < w.maxRetries && !w.sleepBackoff(attempt) {
				break
			}
			continue
		}

		if err := w.analyses.CompleteAnalysis(analysis.ID, &services.AnalysisResults{
			CVRating:        payload.CVRating,
			Skills:          payload.Skills,
			ExperienceLevel: payload.ExperienceLevel,
			MissingSkills:   payload.MissingSkills,
			LearningRoadmap: payload.LearningRoadmap,
			JobMatches:      payload.JobMatches,
		}); err != nil {
			log.Printf("[AnalysisWorker] Error persisting results for analysis %d: %v", analysis.ID, err)
			return
		}

		if err := w.referrals.MarkCVScanCompleted(analysis.UserID); err != nil {
			log.Printf("[AnalysisWorker] Error marking CV scan for user %d: %v", analysis.UserID, err)
		}

		log.Printf("[AnalysisWorker] Analysis %d completed", analysis.ID)
		return
	}

	cause := "analysis failed"
	if lastErr != nil {
		cause = lastErr.Error()
	}
	if err := w.analyses.FailAnalysis(analysis.ID, cause); err != nil {
		log.Printf("[AnalysisWorker] Error failing analysis %d: %v", analysis.ID, err)
	}
	log.Printf("[AnalysisWorker] Analysis %d failed after %d attempts: %s", analysis.ID, w.maxRetries, cause)
}

// sleepBackoff waits before the next attempt. Returns false if the worker
// was stopped while waiting.
func (w *AnalysisWorker) sleepBackoff(attempt int) bool {
	delay := time.Duration(attempt) * 2 * time.Second
	select {
	case <-time.After(delay):
		return true
	case <-w.stopChan:
		return false
	}
}
