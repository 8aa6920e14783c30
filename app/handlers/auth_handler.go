// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/app/services"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	AdminCaptcha(c fiber.Ctx) error
	AdminLogin(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	loginFlow    businessflow.LoginFlow
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	validator    *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(loginFlow businessflow.LoginFlow, tokenService services.TokenService, captchaSvc services.CaptchaService) *AuthHandler {
	return &AuthHandler{
		loginFlow:    loginFlow,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		validator:    validator.New(),
	}
}

// Login handles operator login
// @Summary Operator Login
// @Description Authenticate with username or email plus password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.loginFlow.Login(createRequestContext(c, "/api/v1/auth/login"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUserNotFound(err) || businessflow.IsIncorrectPassword(err) {
			// Same response for both so the endpoint does not leak which part failed
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsUserInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", dto.ErrorAccountInactive, nil)
		}

		log.Println("Login failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Login successful", result)
}

// AdminCaptcha issues a rotate captcha challenge for the admin login form
// @Summary Admin Captcha
// @Description Generate a rotate captcha challenge
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CaptchaResponse} "Challenge generated"
// @Router /api/v1/auth/admin/captcha [get]
func (h *AuthHandler) AdminCaptcha(c fiber.Ctx) error {
	challenge, err := h.captchaSvc.GenerateRotate(createRequestContext(c, "/api/v1/auth/admin/captcha"))
	if err != nil {
		log.Println("Captcha generation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Captcha generation failed", "CAPTCHA_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Captcha generated", dto.CaptchaResponse{
		CaptchaID: challenge.ID,
		MasterB64: challenge.MasterImageBase64,
		ThumbB64:  challenge.ThumbImageBase64,
	})
}

// AdminLogin handles admin login with captcha verification
// @Summary Admin Login
// @Description Authenticate an admin; requires a solved rotate captcha
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation or captcha error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Router /api/v1/auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.loginFlow.AdminLogin(createRequestContext(c, "/api/v1/auth/admin/login"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", dto.ErrorInvalidCaptcha, nil)
		}
		if businessflow.IsUserNotFound(err) || businessflow.IsIncorrectPassword(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsUserInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", dto.ErrorAccountInactive, nil)
		}

		log.Println("Admin login failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken exchanges a refresh token for a new token pair
// @Summary Refresh Tokens
// @Description Exchange a valid refresh token for new access and refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Tokens refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.loginFlow.RefreshToken(createRequestContext(c, "/api/v1/auth/refresh"), req.RefreshToken)
	if err != nil {
		if businessflow.IsUserInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", dto.ErrorAccountInactive, nil)
		}
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "TOKEN_INVALID", nil)
	}

	return successResponse(c, fiber.StatusOK, "Tokens refreshed", result)
}

// Logout revokes the caller's access token
// @Summary Logout
// @Description Revoke the presented access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse "Logged out"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) {
		return errorResponse(c, fiber.StatusBadRequest, "Missing access token", "MISSING_ACCESS_TOKEN", nil)
	}

	if err := h.tokenService.RevokeToken(authHeader[len(prefix):]); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Token revocation failed", "TOKEN_INVALID", nil)
	}

	return successResponse(c, fiber.StatusOK, "Logged out", nil)
}
