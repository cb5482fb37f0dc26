// internal/domain/user/service.go
package user

import (
	"context"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Phone           string `json:"phone"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Register creates a new account in the resolved store.
func (s *Service) Register(ctx context.Context, tc tenant.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperrors.Validation("user/password_mismatch", "passwords do not match")
	}

	email := strings.ToLower(req.Email)

	var existing User
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).Where("email = ?", email).First(&existing)
	if result.Error == nil {
		return nil, apperrors.Conflict("user/email_taken", "an account with this email already exists")
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, apperrors.Internal(result.Error)
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Validation("user/weak_password", "%s", err.Error())
	}

	u := User{
		StoreID:   tc.StoreID,
		Email:     email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		IsActive:  true,
		IsAdmin:   false,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.issueTokens(ctx, &u)
}

// Login authenticates a user within the resolved store.
func (s *Service) Login(ctx context.Context, tc tenant.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var u User
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("email = ? AND is_active = ?", strings.ToLower(req.Email), true).
		First(&u)
	if result.Error != nil {
		return nil, apperrors.Validation("user/bad_credentials", "invalid email or password")
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, apperrors.Validation("user/bad_credentials", "invalid email or password")
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	s.db.WithContext(ctx).Model(&u).Update("last_login_at", now)

	return s.issueTokens(ctx, &u)
}

// RefreshToken generates new tokens using refresh token
func (s *Service) RefreshToken(ctx context.Context, tc tenant.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Validation("user/invalid_refresh_token", "invalid refresh token")
	}

	var u User
	result := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", claims.UserID, true).First(&u)
	if result.Error != nil {
		return nil, apperrors.NotFound("user/not_found", "user not found or inactive")
	}
	if err := tc.Owns(u.StoreID); err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	newRefreshToken := refreshToken
	if s.config.JWT.RefreshTokenRotation {
		newRefreshToken, err = s.jwtManager.GenerateRefreshToken(u.ID, u.Email)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	u.Password = ""
	return &AuthResponse{
		User:         &u,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// GetProfile gets user profile by ID
func (s *Service) GetProfile(ctx context.Context, tc tenant.Context, userID uint) (*User, error) {
	var u User
	result := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u)
	if result.Error != nil {
		return nil, apperrors.NotFound("user/not_found", "user not found")
	}
	if err := tc.Owns(u.StoreID); err != nil {
		return nil, err
	}

	u.Password = ""
	return &u, nil
}

// ChangePassword changes user password after verifying current password
func (s *Service) ChangePassword(ctx context.Context, tc tenant.Context, userID uint, currentPassword, newPassword string) error {
	var u User
	result := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u)
	if result.Error != nil {
		return apperrors.NotFound("user/not_found", "user not found")
	}
	if err := tc.Owns(u.StoreID); err != nil {
		return err
	}

	if err := s.passwordManager.VerifyPassword(currentPassword, u.Password); err != nil {
		return apperrors.Validation("user/bad_credentials", "current password is incorrect")
	}

	hashedPassword, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return apperrors.Validation("user/weak_password", "%s", err.Error())
	}

	if err := s.db.WithContext(ctx).Model(&u).Update("password", hashedPassword).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, u *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	u.Password = ""
	return &AuthResponse{
		User:         u,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}
