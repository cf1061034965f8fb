package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"support-router/internal/domain"
)

const keyUserID = "user_id"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Writer defines the record mutations consumed by the intent handlers and
// the interaction logger.
type Writer interface {
	PutOrder(ctx context.Context, order domain.Order) error
	PutPasswordReset(ctx context.Context, reset domain.PasswordReset) error
	UpdateUser(ctx context.Context, userID string, assignments []domain.Assignment) error
	PutComplaint(ctx context.Context, complaint domain.Complaint) error
	PutInteractionLog(ctx context.Context, entry domain.InteractionLog) error
}

// Tables names the four DynamoDB tables backing the router.
type Tables struct {
	Orders     string
	Users      string
	Logs       string
	Complaints string
}

func (t Tables) validate() error {
	for name, v := range map[string]string{
		"orders":     t.Orders,
		"users":      t.Users,
		"logs":       t.Logs,
		"complaints": t.Complaints,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("repository: %s table name must not be empty", name)
		}
	}
	return nil
}

// Client writes router records to DynamoDB.
type Client struct {
	api    dynamodbAPI
	tables Tables
}

// New creates a new repository Client.
func New(api dynamodbAPI, tables Tables) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if err := tables.validate(); err != nil {
		return nil, err
	}
	return &Client{api: api, tables: tables}, nil
}

// PutOrder creates or replaces the order row. No prior state is read.
func (c *Client) PutOrder(ctx context.Context, order domain.Order) error {
	if order.OrderID == "" {
		return errors.New("repository: PutOrder: order_id is required")
	}
	if err := c.put(ctx, c.tables.Orders, order); err != nil {
		return fmt.Errorf("repository: PutOrder: %w", err)
	}
	return nil
}

// PutPasswordReset replaces the whole user row with the reset token.
func (c *Client) PutPasswordReset(ctx context.Context, reset domain.PasswordReset) error {
	if err := c.put(ctx, c.tables.Users, reset); err != nil {
		return fmt.Errorf("repository: PutPasswordReset: %w", err)
	}
	return nil
}

// UpdateUser applies all assignments to the user row in one UpdateItem call.
// A missing row is created holding only the assigned attributes.
func (c *Client) UpdateUser(ctx context.Context, userID string, assignments []domain.Assignment) error {
	key := map[string]types.AttributeValue{
		keyUserID: &types.AttributeValueMemberS{Value: userID},
	}
	if err := c.update(ctx, c.tables.Users, key, assignments); err != nil {
		return fmt.Errorf("repository: UpdateUser: %w", err)
	}
	return nil
}

// PutComplaint writes a new complaint row.
func (c *Client) PutComplaint(ctx context.Context, complaint domain.Complaint) error {
	if complaint.ComplaintID == "" {
		return errors.New("repository: PutComplaint: complaint_id is required")
	}
	if err := c.put(ctx, c.tables.Complaints, complaint); err != nil {
		return fmt.Errorf("repository: PutComplaint: %w", err)
	}
	return nil
}

// PutInteractionLog appends an audit row.
func (c *Client) PutInteractionLog(ctx context.Context, entry domain.InteractionLog) error {
	if entry.LogID == "" {
		return errors.New("repository: PutInteractionLog: log_id is required")
	}
	if err := c.put(ctx, c.tables.Logs, entry); err != nil {
		return fmt.Errorf("repository: PutInteractionLog: %w", err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, table string, record any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

func (c *Client) update(ctx context.Context, table string, key map[string]types.AttributeValue, assignments []domain.Assignment) error {
	expr, err := updateExpression(assignments)
	if err != nil {
		return err
	}
	_, err = c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

// updateExpression builds a single SET clause covering every assignment.
func updateExpression(assignments []domain.Assignment) (expression.Expression, error) {
	if len(assignments) == 0 {
		return expression.Expression{}, errors.New("no attributes to update")
	}
	var upd expression.UpdateBuilder
	for _, a := range assignments {
		if a.Attr == "" {
			return expression.Expression{}, errors.New("assignment attribute name is empty")
		}
		if a.Attr == keyUserID {
			return expression.Expression{}, fmt.Errorf("cannot assign key attribute %q", a.Attr)
		}
		upd = upd.Set(expression.Name(a.Attr), expression.Value(a.Value))
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build update expression: %w", err)
	}
	return expr, nil
}
