package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"careersync/internal/models"
)

// AnalysisService owns CV analysis records and the content-hash cache that
// short-circuits repeat AI calls for identical CV text.
type AnalysisService struct {
	db          *gorm.DB
	cacheWindow time.Duration
}

func NewAnalysisService(db *gorm.DB, cacheWindow time.Duration) *AnalysisService {
	return &AnalysisService{db: db, cacheWindow: cacheWindow}
}

// CreateResult reports whether the analysis was served from cache.
type CreateResult struct {
	Analysis *models.CVAnalysis `json:"analysis"`
	Cached   bool               `json:"cached"`
}

// ContentHash returns the SHA-256 hex digest of extracted CV text. The hash
// is computed server-side; any client-supplied value is ignored.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CreateAnalysis stores a new CV analysis. If another completed analysis
// with the same content hash exists inside the cache window, its results are
// cloned into a new completed record owned by the requesting user and no AI
// call is scheduled. Otherwise a pending record is created for the worker.
//
// The cache lookup deliberately ignores user location, so a cached hit may
// carry job matches tailored to another user's location.
func (s *AnalysisService) CreateAnalysis(userID uint, fileName, fileKey, extractedText string, userLocation *string) (*CreateResult, error) {
	hash := ContentHash(extractedText)

	var cached models.CVAnalysis
	err := s.db.Where("content_hash = ? AND status = ? AND created_at > ?",
		hash, models.AnalysisStatusCompleted, time.Now().Add(-s.cacheWindow)).
		Order("created_at DESC").
		First(&cached).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	analysis := models.CVAnalysis{
		UserID:        userID,
		FileName:      fileName,
		FileKey:       fileKey,
		ExtractedText: extractedText,
		ContentHash:   hash,
		UserLocation:  userLocation,
		Status:        models.AnalysisStatusPending,
	}

	if err == nil {
		analysis.Status = models.AnalysisStatusCompleted
		analysis.ProgressMessage = "Served from recent analysis"
		analysis.CVRating = cached.CVRating
		analysis.Skills = cached.Skills
		analysis.ExperienceLevel = cached.ExperienceLevel
		analysis.MissingSkills = cached.MissingSkills
		analysis.LearningRoadmap = cached.LearningRoadmap
		analysis.JobMatches = cached.JobMatches

		if err := s.db.Create(&analysis).Error; err != nil {
			return nil, fmt.Errorf("failed to create analysis: %w", err)
		}
		log.Printf("Analysis %d for user %d served from cache (hash %.12s)", analysis.ID, userID, hash)
		return &CreateResult{Analysis: &analysis, Cached: true}, nil
	}

	if err := s.db.Create(&analysis).Error; err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	log.Printf("Analysis %d for user %d queued (hash %.12s)", analysis.ID, userID, hash)
	return &CreateResult{Analysis: &analysis, Cached: false}, nil
}

// GetUserAnalyses returns the user's analyses, newest first.
func (s *AnalysisService) GetUserAnalyses(userID uint) ([]models.CVAnalysis, error) {
	var analyses []models.CVAnalysis
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// GetAnalysis returns a single analysis, enforcing ownership.
func (s *AnalysisService) GetAnalysis(analysisID, userID uint) (*models.CVAnalysis, error) {
	var analysis models.CVAnalysis
	if err := s.db.First(&analysis, analysisID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis not found")
		}
		return nil, err
	}
	if analysis.UserID != userID {
		return nil, fmt.Errorf("analysis not found")
	}
	return &analysis, nil
}

// NextPending claims the oldest pending analysis for the worker. The status
// flip to extracting_skills happens in the same transaction, so concurrent
// workers cannot claim the same record.
func (s *AnalysisService) NextPending() (*models.CVAnalysis, error) {
	var analysis models.CVAnalysis

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", models.AnalysisStatusPending).
			Order("created_at ASC").
			First(&analysis).Error; err != nil {
			return err
		}

		result := tx.Model(&models.CVAnalysis{}).
			Where("id = ? AND status = ?", analysis.ID, models.AnalysisStatusPending).
			Updates(map[string]interface{}{
				"status":           models.AnalysisStatusExtractingSkills,
				"progress_message": "Extracting skills from your CV...",
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		analysis.Status = models.AnalysisStatusExtractingSkills
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &analysis, nil
}

// SetProgress updates the status and progress message of an analysis.
func (s *AnalysisService) SetProgress(analysisID uint, status, message string) error {
	return s.db.Model(&models.CVAnalysis{}).Where("id = ?", analysisID).
		Updates(map[string]interface{}{
			"status":           status,
			"progress_message": message,
		}).Error
}

// CompleteAnalysis persists the AI results and marks the record completed.
type AnalysisResults struct {
	CVRating        int
	Skills          []string
	ExperienceLevel string
	MissingSkills   []string
	LearningRoadmap []models.RoadmapEntry
	JobMatches      []models.JobMatch
}

func (s *AnalysisService) CompleteAnalysis(analysisID uint, results *AnalysisResults) error {
	rating := results.CVRating
	return s.db.Model(&models.CVAnalysis{}).Where("id = ?", analysisID).
		Updates(map[string]interface{}{
			"status":           models.AnalysisStatusCompleted,
			"progress_message": "Analysis complete",
			"cv_rating":        rating,
			"skills":           models.StringList(results.Skills),
			"experience_level": results.ExperienceLevel,
			"missing_skills":   models.StringList(results.MissingSkills),
			"learning_roadmap": models.RoadmapEntries(results.LearningRoadmap),
			"job_matches":      models.JobMatches(results.JobMatches),
			"error":            "",
		}).Error
}

// FailAnalysis marks an analysis as failed with the terminal error message.
func (s *AnalysisService) FailAnalysis(analysisID uint, cause string) error {
	return s.db.Model(&models.CVAnalysis{}).Where("id = ?", analysisID).
		Updates(map[string]interface{}{
			"status":           models.AnalysisStatusFailed,
			"progress_message": "Analysis failed",
			"error":            cause,
		}).Error
}

// IncrementAttempts bumps the attempt counter before each AI call.
func (s *AnalysisService) IncrementAttempts(analysisID uint) error {
	return s.db.Model(&models.CVAnalysis{}).Where("id = ?", analysisID).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}
