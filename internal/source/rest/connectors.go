package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/restaurant-notify/internal/model"
)

// Connector implements all four source categories against a single
// platform API. It satisfies source.OrderSource, source.MessageSource,
// source.ReviewSource, and source.UserSource.
type Connector struct {
	client *Client
}

// NewConnector creates a connector backed by the given API settings.
func NewConnector(baseURL, token string, timeout time.Duration) *Connector {
	return &Connector{
		client: NewClient(baseURL, token, timeout),
	}
}

// OwnOrders returns the authenticated customer's own orders.
func (c *Connector) OwnOrders(ctx context.Context) ([]model.Order, error) {
	var resp ordersResponse
	if err := c.client.Get(ctx, "/api/orders/my", &resp); err != nil {
		return nil, fmt.Errorf("fetching own orders: %w", err)
	}
	return toOrders(resp.Orders), nil
}

// IncomingOrders returns newly received orders awaiting confirmation.
func (c *Connector) IncomingOrders(ctx context.Context) ([]model.Order, error) {
	var resp ordersResponse
	if err := c.client.Get(ctx, "/api/admin/orders?status=pending", &resp); err != nil {
		return nil, fmt.Errorf("fetching incoming orders: %w", err)
	}
	return toOrders(resp.Orders), nil
}

// UnreadMessages returns contact messages not yet handled by staff.
func (c *Connector) UnreadMessages(ctx context.Context) ([]model.Message, error) {
	var resp messagesResponse
	if err := c.client.Get(ctx, "/api/admin/messages?status=unread", &resp); err != nil {
		return nil, fmt.Errorf("fetching unread messages: %w", err)
	}

	messages := make([]model.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, model.Message{
			ID:        m.ID,
			Status:    m.Status,
			Name:      m.Name,
			Email:     m.Email,
			Subject:   m.Subject,
			Body:      m.Message,
			CreatedAt: parseTime(m.CreatedAt),
		})
	}
	return messages, nil
}

// PendingReviews returns reviews awaiting moderation.
func (c *Connector) PendingReviews(ctx context.Context) ([]model.Review, error) {
	var resp reviewsResponse
	if err := c.client.Get(ctx, "/api/admin/reviews?status=pending", &resp); err != nil {
		return nil, fmt.Errorf("fetching pending reviews: %w", err)
	}

	reviews := make([]model.Review, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		rev := model.Review{
			ID:         r.ID,
			Status:     r.Status,
			MenuItemID: r.MenuItemID,
			CreatedAt:  parseTime(r.CreatedAt),
		}
		if r.MenuItem != nil {
			rev.MenuItemName = r.MenuItem.Name
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

// RecentCustomers returns recently created customer accounts.
func (c *Connector) RecentCustomers(ctx context.Context) ([]model.User, error) {
	var resp usersResponse
	if err := c.client.Get(ctx, "/api/admin/users?role=customer", &resp); err != nil {
		return nil, fmt.Errorf("fetching recent customers: %w", err)
	}

	users := make([]model.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, model.User{
			ID:        u.ID,
			Role:      u.Role,
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: parseTime(u.CreatedAt),
		})
	}
	return users, nil
}

func toOrders(raw []apiOrder) []model.Order {
	orders := make([]model.Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, model.Order{
			ID:          o.ID,
			Status:      o.Status,
			OrderNumber: o.OrderNumber,
			CreatedAt:   parseTime(o.CreatedAt),
		})
	}
	return orders
}

// parseTime parses an RFC 3339 timestamp, returning the zero time for
// anything unparseable. A zero CreatedAt fails the freshness window, so
// malformed records are never announced as new.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
