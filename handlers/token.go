package handlers

import (
	"net/http"
	"time"

	reportRepo "workerlly/database/repository/report"
	tokenRepo "workerlly/database/repository/token"
	"workerlly/middleware"
	"workerlly/models"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
)

// TokenHandler exposes FCM registration and delivery analytics.
type TokenHandler struct {
	tokens  tokenRepo.TokenRepository
	reports reportRepo.ReportRepository
}

// NewTokenHandler wires the token endpoints.
func NewTokenHandler(tokens tokenRepo.TokenRepository, reports reportRepo.ReportRepository) *TokenHandler {
	return &TokenHandler{tokens: tokens, reports: reports}
}

type tokenRequest struct {
	DeviceID    string `json:"device_id" binding:"required"`
	AppType     string `json:"app_type" binding:"required"`
	Platform    string `json:"platform"`
	Token       string `json:"token"`
	AppVersion  string `json:"app_version"`
	DeviceModel string `json:"device_model"`
}

func (r *tokenRequest) validAppType() bool {
	return r.AppType == models.AppTypeProvider || r.AppType == models.AppTypeSeeker
}

// Register upserts a device token. POST /fcm/register
func (h *TokenHandler) Register(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if !req.validAppType() || req.Token == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "app_type must be provider or seeker and token is required")
		return
	}

	token := &models.PushToken{
		UserID:      middleware.UserID(c),
		DeviceID:    req.DeviceID,
		AppType:     req.AppType,
		Platform:    req.Platform,
		Token:       req.Token,
		AppVersion:  req.AppVersion,
		DeviceModel: req.DeviceModel,
	}
	if err := h.tokens.Upsert(c.Request.Context(), token); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "token registered"})
}

// Unregister deactivates a device token. POST /fcm/unregister
func (h *TokenHandler) Unregister(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if !req.validAppType() {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "app_type must be provider or seeker")
		return
	}
	if err := h.tokens.Deactivate(c.Request.Context(), middleware.UserID(c), req.DeviceID, req.AppType); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "token deactivated"})
}

// DeliveryStats aggregates per-event success rates over the last week.
// GET /notifications/stats
func (h *TokenHandler) DeliveryStats(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -7)
	stats, err := h.reports.EventStats(c.Request.Context(), since)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
