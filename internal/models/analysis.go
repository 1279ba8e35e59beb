package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CVAnalysis status values. A pending analysis is picked up by the worker,
// which walks it through the progress states to completed or failed.
const (
	AnalysisStatusPending             = "pending"
	AnalysisStatusExtractingSkills    = "extracting_skills"
	AnalysisStatusAnalyzingExperience = "analyzing_experience"
	AnalysisStatusGeneratingRoadmap   = "generating_roadmap"
	AnalysisStatusCompleted           = "completed"
	AnalysisStatusFailed              = "failed"
)

// RoadmapEntry is one week of the learning roadmap suggested by the AI.
type RoadmapEntry struct {
	Week              int    `json:"week"`
	Skill             string `json:"skill"`
	Course            string `json:"course"`
	Platform          string `json:"platform"`
	Hours             int    `json:"hours"`
	Link              string `json:"link"`
	Tips              string `json:"tips,omitempty"`
	PracticeExercises string `json:"practiceExercises,omitempty"`
}

// JobMatch is a job role the AI matched against the CV.
type JobMatch struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyWebsite string `json:"companyWebsite,omitempty"`
	CompanyLogo    string `json:"companyLogo,omitempty"`
	MatchScore     int    `json:"matchScore"`
	Salary         string `json:"salary"`
	Location       string `json:"location"`
}

// StringList stores a JSON array of strings in a single column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// RoadmapEntries stores the learning roadmap as a JSON column.
type RoadmapEntries []RoadmapEntry

func (r RoadmapEntries) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *RoadmapEntries) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// JobMatches stores job matches as a JSON column.
type JobMatches []JobMatch

func (m JobMatches) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JobMatches) Scan(value interface{}) error {
	return scanJSON(value, m)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// CVAnalysis represents an uploaded CV and its AI analysis results
type CVAnalysis struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	UserID        uint    `gorm:"not null;index" json:"user_id"`
	User          *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FileName      string  `gorm:"size:255;not null" json:"file_name"`
	FileKey       string  `gorm:"size:255" json:"file_key"`
	ExtractedText string  `gorm:"type:text" json:"extracted_text"`
	ContentHash   string  `gorm:"size:64;index" json:"content_hash"`
	UserLocation  *string `gorm:"size:100" json:"user_location,omitempty"`

	Status          string `gorm:"size:30;default:pending;index" json:"status"`
	ProgressMessage string `gorm:"size:255" json:"progress_message"`
	Attempts        int    `gorm:"default:0" json:"attempts"`
	Error           string `gorm:"size:500" json:"error,omitempty"`

	// AI analysis results
	CVRating        *int           `json:"cv_rating,omitempty"`
	Skills          StringList     `gorm:"type:text" json:"skills,omitempty"`
	ExperienceLevel string         `gorm:"size:50" json:"experience_level,omitempty"`
	MissingSkills   StringList     `gorm:"type:text" json:"missing_skills,omitempty"`
	LearningRoadmap RoadmapEntries `gorm:"type:text" json:"learning_roadmap,omitempty"`
	JobMatches      JobMatches     `gorm:"type:text" json:"job_matches,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CVAnalysis) TableName() string {
	return "cv_analyses"
}
