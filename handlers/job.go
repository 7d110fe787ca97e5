package handlers

import (
	"net/http"

	"workerlly/middleware"
	"workerlly/services/job"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobHandler exposes the job lifecycle endpoints.
type JobHandler struct {
	svc *job.Service
}

// NewJobHandler wires the job endpoints.
func NewJobHandler(svc *job.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid id", c.Param(name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateJob posts a new job. POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var in job.PostJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	created, err := h.svc.PostJob(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

// GetJob returns job detail for its provider or assignee. GET /jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	j, err := h.svc.GetJob(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, j)
}

// ListJobs returns the caller's posted jobs. GET /jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.svc.ListJobs(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, jobs)
}

// UpdateHourlyRate changes a pending job's rate. PATCH /jobs/update-hourly-rate
func (h *JobHandler) UpdateHourlyRate(c *gin.Context) {
	var req struct {
		JobID      primitive.ObjectID `json:"job_id" binding:"required"`
		HourlyRate float64            `json:"hourly_rate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	updated, err := h.svc.UpdateHourlyRate(c.Request.Context(), middleware.UserID(c), req.JobID, req.HourlyRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, updated)
}

// CancelPending cancels an unassigned job. PATCH /jobs/cancel
func (h *JobHandler) CancelPending(c *gin.Context) {
	var req struct {
		JobID  primitive.ObjectID `json:"job_id" binding:"required"`
		Reason string             `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	cancelled, err := h.svc.CancelPending(c.Request.Context(), middleware.UserID(c), req.JobID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cancelled)
}

// MarkReached records the seeker's arrival. POST /jobs/:job_id/reached
func (h *JobHandler) MarkReached(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	if err := h.svc.MarkReached(c.Request.Context(), middleware.UserID(c), jobID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "reached recorded"})
}

// VerifyStartOTP starts the working phase. POST /start-otp
func (h *JobHandler) VerifyStartOTP(c *gin.Context) {
	var req struct {
		JobID primitive.ObjectID `json:"job_id" binding:"required"`
		OTP   string             `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	started, err := h.svc.VerifyStartOTP(c.Request.Context(), middleware.UserID(c), req.JobID, req.OTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, started)
}

// VerifyDoneOTP settles the job. POST /done-otp
func (h *JobHandler) VerifyDoneOTP(c *gin.Context) {
	var req struct {
		JobID primitive.ObjectID `json:"job_id" binding:"required"`
		OTP   string             `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	completed, err := h.svc.VerifyDoneOTP(c.Request.Context(), middleware.UserID(c), req.JobID, req.OTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, completed)
}

// SeekerCancel is the seeker's grace-window out. POST /seeker-cancel/:job_id
func (h *JobHandler) SeekerCancel(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	if err := h.svc.SeekerCancel(c.Request.Context(), middleware.UserID(c), jobID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "job cancelled"})
}

// ProviderCancel is the provider's early out. POST /cancel-job/:job_id
func (h *JobHandler) ProviderCancel(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	if err := h.svc.ProviderCancel(c.Request.Context(), middleware.UserID(c), jobID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "job cancelled"})
}

// DelayedCancel is the provider's late out. POST /delayed-cancel/:job_id
func (h *JobHandler) DelayedCancel(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	if err := h.svc.DelayedCancel(c.Request.Context(), middleware.UserID(c), jobID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "job cancelled"})
}

// SubmitReview stores one side's review. POST /reviews
func (h *JobHandler) SubmitReview(c *gin.Context) {
	var req struct {
		JobID   primitive.ObjectID `json:"job_id" binding:"required"`
		Rating  float64            `json:"rating" binding:"required"`
		Comment string             `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.svc.SubmitReview(c.Request.Context(), middleware.UserID(c), req.JobID, req.Rating, req.Comment); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"message": "review recorded"})
}

// SetStatus flips the seeker online/offline. POST /status
func (h *JobHandler) SetStatus(c *gin.Context) {
	var req struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	report, err := h.svc.SetOnline(c.Request.Context(), middleware.UserID(c), *req.Online)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// GetStatus is the seeker's status poll. GET /status
func (h *JobHandler) GetStatus(c *gin.Context) {
	report, err := h.svc.Status(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// CreatePaymentOrder opens a payment intent. POST /jobs/:job_id/payment
func (h *JobHandler) CreatePaymentOrder(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	order, err := h.svc.CreatePaymentOrder(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// PaymentWebhook is the gateway callback. POST /payments/webhook
func (h *JobHandler) PaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}
	if err := h.svc.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Webhook rejected", err.Error())
		return
	}
	c.Status(http.StatusOK)
}
