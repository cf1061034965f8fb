package domain

// OrderStatusRefundInitiated marks an order whose refund has been requested.
const OrderStatusRefundInitiated = "refund_initiated"

// Subscription and complaint status values.
const (
	SubscriptionCancelled = "cancelled"
	ComplaintOpen         = "open"
)

// User attribute names touched by partial updates.
const (
	AttrEmail                 = "email"
	AttrPhone                 = "phone"
	AttrSubscriptionStatus    = "subscription_status"
	AttrSubscriptionUpdatedAt = "subscription_updated_at"
)

// Order is a row in the orders table, keyed by order_id.
type Order struct {
	OrderID    string `dynamodbav:"order_id"`
	Status     string `dynamodbav:"status"`
	RefundedAt string `dynamodbav:"refunded_at"`
	Email      string `dynamodbav:"email"`
}

// PasswordReset is the full users-table row written by a reset request.
// Writing it replaces any existing row for the same user.
type PasswordReset struct {
	UserID      string `dynamodbav:"user_id"`
	Token       string `dynamodbav:"password_reset_token"`
	RequestedAt string `dynamodbav:"password_reset_requested_at"`
}

// Assignment sets a single attribute in a partial update.
type Assignment struct {
	Attr  string
	Value any
}

// Complaint is a row in the complaints table, keyed by complaint_id.
type Complaint struct {
	ComplaintID string `dynamodbav:"complaint_id"`
	Email       string `dynamodbav:"email"`
	Message     string `dynamodbav:"message"`
	Status      string `dynamodbav:"status"`
	CreatedAt   string `dynamodbav:"created_at"`
}

// InteractionLog is the append-only audit row written for every dispatched
// request. A nil intent is stored as a NULL attribute.
type InteractionLog struct {
	LogID        string  `dynamodbav:"log_id"`
	Timestamp    string  `dynamodbav:"timestamp"`
	Intent       *string `dynamodbav:"intent"`
	Confidence   float64 `dynamodbav:"confidence"`
	Email        string  `dynamodbav:"email"`
	Message      string  `dynamodbav:"message"`
	ResultStatus string  `dynamodbav:"result_status"`
	ResultIntent *string `dynamodbav:"result_intent"`
}
