package domain

// Result statuses returned to the customer.
//
// StatusEscalate and StatusEscalated both mean "handed to a human". The two
// literals are kept apart because existing consumers match on each.
const (
	StatusSuccess   = "success"
	StatusEscalate  = "escalate"
	StatusEscalated = "escalated"
	StatusError     = "error"
)

// Result is the customer-facing outcome of a dispatched request. Intent is
// nil only when the request carried an explicit null intent; it is always
// encoded.
type Result struct {
	Status             string  `json:"status"`
	Intent             *string `json:"intent"`
	MessageForCustomer string  `json:"message_for_customer"`
}
