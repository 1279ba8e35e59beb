package models

import (
	"time"
)

// Interview is an entry in the user's interview tracker
type Interview struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              uint       `gorm:"not null;index" json:"user_id"`
	User                *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyName         string     `gorm:"size:200;not null" json:"company_name"`
	Position            string     `gorm:"size:200;not null" json:"position"`
	InterviewDate       time.Time  `json:"interview_date"`
	Rating              int        `json:"rating"` // 1-10
	Notes               *string    `gorm:"type:text" json:"notes,omitempty"`
	HasSecondInterview  bool       `gorm:"default:false" json:"has_second_interview"`
	SecondInterviewDate *time.Time `json:"second_interview_date,omitempty"`
	Status              string     `gorm:"size:30" json:"status"`
	Tips                *string    `gorm:"type:text" json:"tips,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Interview) TableName() string {
	return "interviews"
}
