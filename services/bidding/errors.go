package bidding

import "errors"

// User-visible failures of the bidding paths, in the order the
// preconditions check them.
var (
	ErrOffline             = errors.New("seeker is offline")
	ErrInsufficientBalance = errors.New("insufficient wallet balance to place this bid")
	ErrJobNotFound         = errors.New("job not found")
	ErrJobNotOpen          = errors.New("job is no longer open for bidding")
	ErrSeekerBusy          = errors.New("seeker is already occupied with another job")
	ErrDuplicateBid        = errors.New("a pending bid for this job already exists")
	ErrBidNotFound         = errors.New("bid not found")
	ErrUnauthorized        = errors.New("only the job owner can act on its bids")
	ErrBidNotPending       = errors.New("bid is no longer pending")
	ErrLocationMissing     = errors.New("seeker location is not available")
)
