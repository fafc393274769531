package rest

// ErrorResponse is the error envelope returned by the platform API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ordersResponse is the response from the order endpoints.
type ordersResponse struct {
	Orders []apiOrder `json:"orders"`
}

// apiOrder is a single order as returned by the order service.
type apiOrder struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderNumber string `json:"order_number"`
	CreatedAt   string `json:"created_at"`
}

// messagesResponse is the response from the message endpoints.
type messagesResponse struct {
	Messages []apiMessage `json:"messages"`
}

// apiMessage is a single contact message as returned by the message service.
type apiMessage struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// reviewsResponse is the response from the review endpoints.
type reviewsResponse struct {
	Reviews []apiReview `json:"reviews"`
}

// apiReview is a single review as returned by the review service.
type apiReview struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	MenuItemID string `json:"menu_item_id"`
	MenuItem   *struct {
		Name string `json:"name"`
	} `json:"menu_item"`
	CreatedAt string `json:"created_at"`
}

// usersResponse is the response from the user endpoints.
type usersResponse struct {
	Users []apiUser `json:"users"`
}

// apiUser is a single user account as returned by the user service.
type apiUser struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}
