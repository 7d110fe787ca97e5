package handlers

import (
	userRepo "workerlly/database/repository/user"
)

// HandlerBundle carries every handler the route table mounts, plus the
// user repository the auth middleware validates against.
type HandlerBundle struct {
	UserRepo userRepo.UserRepository

	Auth   *AuthHandler
	Jobs   *JobHandler
	Bids   *BidHandler
	Tokens *TokenHandler
	WS     *WSHandler
}
