package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"careersync/internal/models"
)

// AuthService handles signup and login
type AuthService struct {
	db       *gorm.DB
	referral *ReferralService
}

func NewAuthService(db *gorm.DB, referral *ReferralService) *AuthService {
	return &AuthService{db: db, referral: referral}
}

// Register creates a new user and issues their referral code. Applying a
// referral code someone shared with them is a separate step handled by the
// referral service, mirroring the split between signup and referral intake.
func (s *AuthService) Register(email, name, password string, location *string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Location:     location,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.referral.EnsureReferralCode(user.ID); err != nil {
		log.Printf("Warning: failed to create referral code for user %d: %v", user.ID, err)
	}

	log.Printf("New user created: %s (ID: %d)", email, user.ID)
	return &user, nil
}

// Login verifies credentials and returns the user.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	return &user, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the mutable profile fields.
func (s *AuthService) UpdateProfile(userID uint, name *string, location *string) (*models.User, error) {
	updates := map[string]interface{}{}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		updates["name"] = *name
	}
	if location != nil {
		updates["location"] = *location
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetUserByID(userID)
}
