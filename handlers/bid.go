package handlers

import (
	"net/http"

	"workerlly/middleware"
	"workerlly/services/bidding"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BidHandler exposes bid placement and the acceptance endpoint.
type BidHandler struct {
	svc *bidding.Service
}

// NewBidHandler wires the bid endpoints.
func NewBidHandler(svc *bidding.Service) *BidHandler {
	return &BidHandler{svc: svc}
}

// CreateBid places a seeker's bid. POST /bids
func (h *BidHandler) CreateBid(c *gin.Context) {
	var req struct {
		JobID  primitive.ObjectID `json:"job_id" binding:"required"`
		Amount float64            `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	bid, err := h.svc.CreateBid(c.Request.Context(), middleware.UserID(c), req.JobID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, bid)
}

// ActOnBid accepts a bid. PATCH /bids/:bid_id
func (h *BidHandler) ActOnBid(c *gin.Context) {
	bidID, ok := objectIDParam(c, "bid_id")
	if !ok {
		return
	}
	var req struct {
		Action               string `json:"action" binding:"required"`
		EstimatedTimeMinutes int    `json:"estimated_time_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if req.Action != "accept" {
		utils.JSONError(c, http.StatusBadRequest, "Unsupported action", req.Action)
		return
	}

	job, err := h.svc.AcceptBid(c.Request.Context(), middleware.UserID(c), bidID, req.EstimatedTimeMinutes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, job)
}

// ListBidsForJob is the provider's bid sheet. GET /jobs/:job_id/bids
func (h *BidHandler) ListBidsForJob(c *gin.Context) {
	jobID, ok := objectIDParam(c, "job_id")
	if !ok {
		return
	}
	bids, err := h.svc.ListBidsForJob(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bids)
}
