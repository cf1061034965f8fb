package domain

// Intent is the closed set of request purposes the router can automate.
// Anything the classifier sends outside this set is IntentUnrecognized.
type Intent int

const (
	IntentUnrecognized Intent = iota
	IntentRefund
	IntentPasswordReset
	IntentCancelSubscription
	IntentAccountUpdate
	IntentComplaint
)

// DefaultIntent is used when the request carries no intent at all.
const DefaultIntent = "unknown"

var intentNames = map[Intent]string{
	IntentRefund:             "refund",
	IntentPasswordReset:      "password_reset",
	IntentCancelSubscription: "cancel_subscription",
	IntentAccountUpdate:      "account_update",
	IntentComplaint:          "complaint",
}

// ParseIntent matches raw exactly against the known intent labels.
// There is no case folding or trimming.
func ParseIntent(raw string) Intent {
	for intent, name := range intentNames {
		if name == raw {
			return intent
		}
	}
	return IntentUnrecognized
}

// ParseIntentLabel is ParseIntent for a nullable label; nil is unrecognized.
func ParseIntentLabel(label *string) Intent {
	if label == nil {
		return IntentUnrecognized
	}
	return ParseIntent(*label)
}

// Label returns the wire label as a fresh pointer, ready for a Result.
func (i Intent) Label() *string {
	s := i.String()
	return &s
}

// String returns the wire label of a known intent, or "unrecognized".
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unrecognized"
}
