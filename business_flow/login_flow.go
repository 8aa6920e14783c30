// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/app/services"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles user authentication
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		db:           db,
	}
}

// Login authenticates a user with username/email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	user, err := lf.authenticate(ctx, req.Identifier, req.Password, metadata)
	if err != nil {
		return nil, err
	}
	return lf.buildLoginResponse(ctx, user, false)
}

// AdminLogin authenticates an admin. The captcha is verified before any
// credential check so credential probing is rate-limited by captcha solving.
func (lf *LoginFlowImpl) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	if lf.captchaSvc != nil && !lf.captchaSvc.VerifyRotate(ctx, req.CaptchaID, req.CaptchaAngle) {
		errMsg := "Admin login rejected: captcha verification failed"
		_ = lf.logLoginAttempt(ctx, nil, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("INVALID_CAPTCHA", "captcha verification failed", ErrInvalidCaptcha)
	}

	user, err := lf.authenticate(ctx, req.Identifier, req.Password, metadata)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		errMsg := fmt.Sprintf("Admin login rejected for non-admin user %d", user.ID)
		_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("USER_NOT_FOUND", "user not found", ErrUserNotFound)
	}
	return lf.buildLoginResponse(ctx, user, true)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := lf.tokenService.ValidateToken(refreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_INVALID", "invalid refresh token", err)
	}
	if claims.TokenType != "refresh" {
		return nil, NewBusinessError("TOKEN_INVALID", "token is not a refresh token", nil)
	}

	user, err := lf.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "user not found", ErrUserNotFound)
	}
	if !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "user is inactive", ErrUserInactive)
	}

	return lf.buildLoginResponse(ctx, user, user.IsAdmin())
}

func (lf *LoginFlowImpl) authenticate(ctx context.Context, identifier, password string, metadata *ClientMetadata) (*models.User, error) {
	var user *models.User
	var err error

	if strings.Contains(identifier, "@") {
		user, err = lf.userRepo.ByEmail(ctx, identifier)
	} else {
		user, err = lf.userRepo.ByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		errMsg := fmt.Sprintf("Login failed: no user for identifier %s", identifier)
		_ = lf.logLoginAttempt(ctx, nil, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("USER_NOT_FOUND", "user not found", ErrUserNotFound)
	}

	if !utils.IsTrue(user.IsActive) {
		errMsg := fmt.Sprintf("Login failed: user %d is inactive", user.ID)
		_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "user is inactive", ErrUserInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		errMsg := fmt.Sprintf("Login failed: wrong password for user %d", user.ID)
		_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("INCORRECT_PASSWORD", "incorrect password", ErrIncorrectPassword)
	}

	if err := lf.userRepo.UpdateLastLogin(ctx, user.ID, utils.UTCNow()); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("User %d logged in", user.ID)
	_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return user, nil
}

func (lf *LoginFlowImpl) buildLoginResponse(ctx context.Context, user *models.User, admin bool) (*dto.LoginResponse, error) {
	var accessToken, refreshToken string
	var err error
	if admin {
		accessToken, refreshToken, err = lf.tokenService.GenerateAdminTokens(user.ID)
	} else {
		accessToken, refreshToken, err = lf.tokenService.GenerateTokens(user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	ttl := lf.tokenService.AccessTokenTTL()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl.Seconds()),
		ExpiresAt:    utils.UTCNow().Add(ttl),
		User:         ToAuthUserDTO(*user),
	}, nil
}

func (lf *LoginFlowImpl) logLoginAttempt(ctx context.Context, user *models.User, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
		CreatedAt:    utils.UTCNow(),
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return lf.auditRepo.Save(ctx, audit)
}
