package usecase

import (
	"context"
	"fmt"
	"strconv"

	"support-router/internal/domain"
)

const (
	fieldOrderID  = "order_id"
	fieldNewEmail = "new_email"
	fieldPhone    = "phone"
)

// TODO: refunds and cancellations only record intent; the billing and
// subscription providers are not called yet.
func (r *Router) refund(ctx context.Context, sender string, fields map[string]any) (domain.Result, error) {
	if fields == nil {
		return domain.Result{}, newError(ErrorInvalidInput, "null_fields", nil)
	}
	orderID := stringField(fields, fieldOrderID)
	if orderID == "" {
		return domain.Result{
			Status: domain.StatusEscalate,
			Intent: domain.IntentRefund.Label(),
			MessageForCustomer: "We couldn't find a valid order ID in your request. " +
				"A human support agent will review this shortly.",
		}, nil
	}

	err := r.store.PutOrder(ctx, domain.Order{
		OrderID:    orderID,
		Status:     domain.OrderStatusRefundInitiated,
		RefundedAt: r.timestamp(),
		Email:      sender,
	})
	if err != nil {
		return domain.Result{}, newError(ErrorStore, "dynamodb_order_write_error", err)
	}

	return domain.Result{
		Status: domain.StatusSuccess,
		Intent: domain.IntentRefund.Label(),
		MessageForCustomer: fmt.Sprintf("Your refund for order %s has been initiated and "+
			"will be processed within 3–5 business days.", orderID),
	}, nil
}

func (r *Router) passwordReset(ctx context.Context, sender string) (domain.Result, error) {
	token := newUUID()
	err := r.store.PutPasswordReset(ctx, domain.PasswordReset{
		UserID:      sender,
		Token:       token,
		RequestedAt: r.timestamp(),
	})
	if err != nil {
		return domain.Result{}, newError(ErrorStore, "dynamodb_user_write_error", err)
	}

	return domain.Result{
		Status:             domain.StatusSuccess,
		Intent:             domain.IntentPasswordReset.Label(),
		MessageForCustomer: "We've generated a password reset link for your account: " + r.resetLink(token),
	}, nil
}

func (r *Router) resetLink(token string) string {
	u := *r.resetBase
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (r *Router) cancelSubscription(ctx context.Context, sender string) (domain.Result, error) {
	err := r.store.UpdateUser(ctx, sender, []domain.Assignment{
		{Attr: domain.AttrSubscriptionStatus, Value: domain.SubscriptionCancelled},
		{Attr: domain.AttrSubscriptionUpdatedAt, Value: r.timestamp()},
	})
	if err != nil {
		return domain.Result{}, newError(ErrorStore, "dynamodb_user_update_error", err)
	}

	return domain.Result{
		Status: domain.StatusSuccess,
		Intent: domain.IntentCancelSubscription.Label(),
		MessageForCustomer: "Your subscription has been cancelled. " +
			"You will not be charged for future billing cycles.",
	}, nil
}

func (r *Router) accountUpdate(ctx context.Context, sender string, fields map[string]any) (domain.Result, error) {
	if fields == nil {
		return domain.Result{}, newError(ErrorInvalidInput, "null_fields", nil)
	}
	var assignments []domain.Assignment
	// Presence alone stages the update, whatever the value.
	if v, ok := fields[fieldNewEmail]; ok {
		assignments = append(assignments, domain.Assignment{Attr: domain.AttrEmail, Value: v})
	}
	if v, ok := fields[fieldPhone]; ok {
		assignments = append(assignments, domain.Assignment{Attr: domain.AttrPhone, Value: v})
	}
	if len(assignments) == 0 {
		return domain.Result{
			Status: domain.StatusEscalate,
			Intent: domain.IntentAccountUpdate.Label(),
			MessageForCustomer: "We couldn't detect which account detail to update. " +
				"A human support agent will review your request.",
		}, nil
	}

	if err := r.store.UpdateUser(ctx, sender, assignments); err != nil {
		return domain.Result{}, newError(ErrorStore, "dynamodb_user_update_error", err)
	}

	return domain.Result{
		Status:             domain.StatusSuccess,
		Intent:             domain.IntentAccountUpdate.Label(),
		MessageForCustomer: "Your account details have been updated successfully.",
	}, nil
}

// complaint only records the complaint; routing it to an agent queue
// happens outside this service.
func (r *Router) complaint(ctx context.Context, sender, message string) (domain.Result, error) {
	err := r.store.PutComplaint(ctx, domain.Complaint{
		ComplaintID: newUUID(),
		Email:       sender,
		Message:     message,
		Status:      domain.ComplaintOpen,
		CreatedAt:   r.timestamp(),
	})
	if err != nil {
		return domain.Result{}, newError(ErrorStore, "dynamodb_complaint_write_error", err)
	}

	return domain.Result{
		Status: domain.StatusEscalated,
		Intent: domain.IntentComplaint.Label(),
		MessageForCustomer: "Thank you for your feedback. Your complaint has been logged and " +
			"a support agent will review it shortly.",
	}, nil
}

// stringField reads a text or numeric field. Missing, null, zero and other
// types read as empty.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
