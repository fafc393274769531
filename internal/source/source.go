package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/restaurant-notify/internal/model"
)

// AuthError indicates that authentication has failed or expired upstream.
// It is returned by connectors when a 401 response is received and is
// terminal for the polling cycle: no retry, published state is cleared.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// RateLimitError indicates the upstream throttled the request (429).
// It is terminal for the polling cycle but preserves published state.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s", e.Message)
}

// IsRateLimitError reports whether err (or any error in its chain) is a
// RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// OrderSource yields raw order records.
type OrderSource interface {
	// OwnOrders returns the authenticated customer's own orders.
	OwnOrders(ctx context.Context) ([]model.Order, error)

	// IncomingOrders returns newly received (pending) orders for
	// admin-like callers.
	IncomingOrders(ctx context.Context) ([]model.Order, error)
}

// MessageSource yields raw contact-message records.
type MessageSource interface {
	// UnreadMessages returns messages not yet handled by staff.
	UnreadMessages(ctx context.Context) ([]model.Message, error)
}

// ReviewSource yields raw review records.
type ReviewSource interface {
	// PendingReviews returns reviews awaiting moderation.
	PendingReviews(ctx context.Context) ([]model.Review, error)
}

// UserSource yields raw user records.
type UserSource interface {
	// RecentCustomers returns recently created customer accounts.
	RecentCustomers(ctx context.Context) ([]model.User, error)
}
