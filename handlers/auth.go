package handlers

import (
	"errors"
	"net/http"

	"workerlly/services/auth"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the OTP login flow.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler wires the auth endpoints.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RequestOTP sends a login code. POST /auth/request-otp
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.svc.RequestOTP(c.Request.Context(), req.Mobile); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "OTP sent"})
}

// VerifyOTP exchanges a code for a bearer token. POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
		OTP    string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	result, err := h.svc.VerifyOTP(c.Request.Context(), req.Mobile, req.OTP)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOTP) {
			utils.JSONError(c, http.StatusUnauthorized, err.Error(), "")
			return
		}
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
