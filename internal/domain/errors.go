package domain

import "errors"

// Sentinel errors returned by the settlement engine. Every failure leaves
// engine state exactly as it was before the call; none of these are retried
// internally.
var (
	// Input validation.
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrInvalidOutcome   = errors.New("invalid outcome")
	ErrBetTooLow        = errors.New("bet below minimum stake")

	// Not found.
	ErrMarketNotFound = errors.New("market not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrNoBet          = errors.New("no bet placed")

	// State-machine violations.
	ErrMarketNotOpen      = errors.New("market not open")
	ErrMarketNotFinalized = errors.New("market not finalized")
	ErrMatchNotEnded      = errors.New("match not ended")
	ErrBettingClosed      = errors.New("betting closed")

	// Authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// Once-only violations.
	ErrDuplicateBet   = errors.New("bet already placed")
	ErrAlreadyClaimed = errors.New("winnings already claimed")
	ErrNothingToClaim = errors.New("nothing to claim")

	// External collaborators.
	ErrTransferFailed = errors.New("transfer failed")

	// Configuration.
	ErrNotConfigured     = errors.New("not configured")
	ErrAlreadyConfigured = errors.New("already configured")

	// Fees.
	ErrNoFeesToWithdraw = errors.New("no fees to withdraw")
)
