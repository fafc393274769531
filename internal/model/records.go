package model

import "time"

// Role identifies the kind of authenticated caller the engine serves.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// AdminLike reports whether the role observes the admin event universe
// (incoming orders, messages, reviews, new customers) rather than the
// customer's own orders.
func (r Role) AdminLike() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Scope returns the storage scope for the role. Admin-like roles share
// one scope because they observe the same event universe; customers get
// their own so switching roles does not cross-contaminate markers.
func (r Role) Scope() string {
	if r.AdminLike() {
		return "admin"
	}
	return "customer"
}

// Order status values as reported by the order service.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusPreparing  = "preparing"
	OrderStatusReady      = "ready"
	OrderStatusOnDelivery = "on_delivery"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order is a raw record from the order service.
type Order struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	OrderNumber string    `json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is a raw record from the message service.
type Message struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a raw record from the review service.
type Review struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	MenuItemID   string    `json:"menu_item_id,omitempty"`
	MenuItemName string    `json:"menu_item_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is a raw record from the user service.
type User struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
