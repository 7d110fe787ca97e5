package job

import (
	"time"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPView is the serialized form of a lifecycle OTP. The code itself is
// only filled in on the provider's view; the provider reads it out to the
// seeker on site, and the seeker submits it back through the verify
// endpoints.
type OTPView struct {
	OTP        string     `json:"otp,omitempty"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// JobDetail is the job-detail response, role-scoped: the outer OTP fields
// shadow the model's so the codes reach the provider and nobody else.
type JobDetail struct {
	*models.Job
	JobStartOTP *OTPView `json:"job_start_otp,omitempty"`
	JobDoneOTP  *OTPView `json:"job_done_otp,omitempty"`
}

func otpView(otp *models.JobOTP, withCode bool) *OTPView {
	if otp == nil {
		return nil
	}
	view := &OTPView{Verified: otp.Verified, VerifiedAt: otp.VerifiedAt}
	if withCode {
		view.OTP = otp.OTP
	}
	return view
}

// detailFor builds the caller's view of a job.
func detailFor(job *models.Job, callerID primitive.ObjectID) *JobDetail {
	isProvider := job.UserID == callerID
	return &JobDetail{
		Job:         job,
		JobStartOTP: otpView(job.JobStartOTP, isProvider),
		JobDoneOTP:  otpView(job.JobDoneOTP, isProvider),
	}
}
