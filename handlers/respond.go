package handlers

import (
	"errors"
	"net/http"

	"workerlly/services/bidding"
	"workerlly/services/job"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
)

// respondOK wraps a success payload in the standard envelope.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondServiceError maps service failures onto the error envelope. The
// conflict from a lost acceptance race keeps its message verbatim.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bidding.ErrAlreadyAssigned):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, job.ErrDuplicateReview):
		utils.JSONError(c, http.StatusConflict, "Review already submitted for this job", "")
	case errors.Is(err, job.ErrJobNotFound),
		errors.Is(err, bidding.ErrJobNotFound),
		errors.Is(err, bidding.ErrBidNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, job.ErrUnauthorized),
		errors.Is(err, bidding.ErrUnauthorized):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, job.ErrOTPMismatch):
		utils.JSONError(c, http.StatusBadRequest, "OTP verification failed", "")
	case job.IsValidation(err),
		errors.Is(err, bidding.ErrOffline),
		errors.Is(err, bidding.ErrInsufficientBalance),
		errors.Is(err, bidding.ErrSeekerBusy),
		errors.Is(err, bidding.ErrJobNotOpen),
		errors.Is(err, bidding.ErrDuplicateBid),
		errors.Is(err, bidding.ErrBidNotPending),
		errors.Is(err, bidding.ErrLocationMissing):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	default:
		utils.GetLogger().Sugar().Errorf("unhandled service error: %v", err)
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
