package service

import (
	"errors"
	"fmt"
)

var (
	ErrAuctionNotFound       = errors.New("auction not found")
	ErrAuctionExists         = errors.New("auction already exists")
	ErrWindowClosed          = errors.New("auction window closed")
	ErrIneligible            = errors.New("bidder is not eligible")
	ErrValidation            = errors.New("validation failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrEligibilityNotFound   = errors.New("eligibility entry not found")
)

var (
	ErrInvalidAuctionID  = fmt.Errorf("%w: auction_id is required", ErrValidation)
	ErrInvalidBidderID   = fmt.Errorf("%w: bidder_id is required", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be a positive integer in minor units", ErrValidation)
	ErrInvalidReceivedAt = fmt.Errorf("%w: received_at is required", ErrValidation)
	ErrInvalidArchiveDay = fmt.Errorf("%w: archive day must be YYYY-MM-DD", ErrValidation)
	ErrInvalidIdentifier = fmt.Errorf("%w: operating_number or dot_number is required", ErrValidation)
	ErrWinnerHasNoOffer  = fmt.Errorf("%w: selected winner has no offer on this auction", ErrValidation)
	ErrAuctionNotExpired = fmt.Errorf("%w: auction window is still open", ErrValidation)
	ErrAuctionArchived   = fmt.Errorf("%w: auction is archived", ErrValidation)
)

// OfferRejection 出价被拒绝时返回给调用方的上下文
type OfferRejection struct {
	Reason           string
	Detail           string
	SecondsRemaining int64
	cause            error
}

func (e *OfferRejection) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("offer rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("offer rejected (%s)", e.Reason)
}

func (e *OfferRejection) Unwrap() error {
	return e.cause
}

// dependencyError 包装存储层错误，保留原始原因
func dependencyError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}
