package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"careersync/internal/models"
)

// InterviewService manages the interview tracker
type InterviewService struct {
	db *gorm.DB
}

func NewInterviewService(db *gorm.DB) *InterviewService {
	return &InterviewService{db: db}
}

// InterviewInput carries the writable fields of an interview entry.
type InterviewInput struct {
	CompanyName         string     `json:"company_name" binding:"required"`
	Position            string     `json:"position" binding:"required"`
	InterviewDate       time.Time  `json:"interview_date" binding:"required"`
	Rating              int        `json:"rating" binding:"required"`
	Notes               *string    `json:"notes"`
	HasSecondInterview  bool       `json:"has_second_interview"`
	SecondInterviewDate *time.Time `json:"second_interview_date"`
	Status              string     `json:"status" binding:"required"`
}

func validateRating(rating int) error {
	if rating < 1 || rating > 10 {
		return fmt.Errorf("rating must be between 1 and 10")
	}
	return nil
}

// Create adds a new interview for the user.
func (s *InterviewService) Create(userID uint, input *InterviewInput) (*models.Interview, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	interview := models.Interview{
		UserID:              userID,
		CompanyName:         input.CompanyName,
		Position:            input.Position,
		InterviewDate:       input.InterviewDate,
		Rating:              input.Rating,
		Notes:               input.Notes,
		HasSecondInterview:  input.HasSecondInterview,
		SecondInterviewDate: input.SecondInterviewDate,
		Status:              input.Status,
	}

	if err := s.db.Create(&interview).Error; err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	return &interview, nil
}

// List returns the user's interviews, newest first.
func (s *InterviewService) List(userID uint) ([]models.Interview, error) {
	var interviews []models.Interview
	if err := s.db.Where("user_id = ?", userID).
		Order("interview_date DESC").
		Find(&interviews).Error; err != nil {
		return nil, err
	}
	return interviews, nil
}

// InterviewUpdate carries optional fields for a partial update.
type InterviewUpdate struct {
	CompanyName         *string    `json:"company_name"`
	Position            *string    `json:"position"`
	InterviewDate       *time.Time `json:"interview_date"`
	Rating              *int       `json:"rating"`
	Notes               *string    `json:"notes"`
	HasSecondInterview  *bool      `json:"has_second_interview"`
	SecondInterviewDate *time.Time `json:"second_interview_date"`
	Status              *string    `json:"status"`
	Tips                *string    `json:"tips"`
}

// Update patches an interview after an ownership check.
func (s *InterviewService) Update(interviewID, userID uint, input *InterviewUpdate) (*models.Interview, error) {
	interview, err := s.get(interviewID, userID)
	if err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if input.CompanyName != nil {
		updates["company_name"] = *input.CompanyName
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}
	if input.InterviewDate != nil {
		updates["interview_date"] = *input.InterviewDate
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.HasSecondInterview != nil {
		updates["has_second_interview"] = *input.HasSecondInterview
	}
	if input.SecondInterviewDate != nil {
		updates["second_interview_date"] = *input.SecondInterviewDate
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Tips != nil {
		updates["tips"] = *input.Tips
	}

	if len(updates) > 0 {
		if err := s.db.Model(interview).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return interview, nil
}

// Delete removes an interview after an ownership check.
func (s *InterviewService) Delete(interviewID, userID uint) error {
	interview, err := s.get(interviewID, userID)
	if err != nil {
		return err
	}
	return s.db.Delete(interview).Error
}

func (s *InterviewService) get(interviewID, userID uint) (*models.Interview, error) {
	var interview models.Interview
	if err := s.db.First(&interview, interviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("interview not found")
		}
		return nil, err
	}
	if interview.UserID != userID {
		return nil, fmt.Errorf("not authorized")
	}
	return &interview, nil
}
