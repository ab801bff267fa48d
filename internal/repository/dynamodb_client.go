package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"site-onboarding/internal/domain"
)

const (
	skSession     = "SESSION"
	skMeta        = "META"
	skReservation = "RESERVATION"
	skPrefixStep  = "STEP#"
	ttlDuration   = 90 * 24 * time.Hour // 90-day TTL
)

var (
	ErrNotFound        = errors.New("repository: not found")
	ErrVersionConflict = errors.New("repository: session version conflict")
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// StepRecord is the autosaved delta of one onboarding step.
type StepRecord struct {
	PK        string         `dynamodbav:"PK"`
	SK        string         `dynamodbav:"SK"`
	WebsiteID string         `dynamodbav:"websiteId"`
	StepIndex int            `dynamodbav:"stepIndex"`
	Patch     map[string]any `dynamodbav:"patch"`
	SavedAt   string         `dynamodbav:"savedAt"`
	TTL       int64          `dynamodbav:"ttl"`
}

type sessionRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	WebsiteID string `dynamodbav:"websiteId"`
	Version   int    `dynamodbav:"version"`
	Cursor    string `dynamodbav:"cursor"`
	Snapshot  string `dynamodbav:"snapshot"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	TTL       int64  `dynamodbav:"ttl"`
}

type metaRecord struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	WebsiteID   string `dynamodbav:"websiteId"`
	Completed   bool   `dynamodbav:"completed"`
	CompletedAt string `dynamodbav:"completedAt"`
	TTL         int64  `dynamodbav:"ttl"`
}

type reservationRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	WebsiteID string `dynamodbav:"websiteId"`
	Deadline  string `dynamodbav:"deadline"`
	TTL       int64  `dynamodbav:"ttl"`
}

// Client wraps a DynamoDB table for onboarding state.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// sitePK returns the DynamoDB partition key for a website.
func sitePK(websiteID string) string {
	return "SITE#" + websiteID
}

// stepSK returns the sort key of a step record; zero padded so records sort by step.
func stepSK(stepIndex int) string {
	return fmt.Sprintf("%s%03d", skPrefixStep, stepIndex)
}

func key(websiteID, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sitePK(websiteID)},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// ttlValue returns a Unix timestamp 90 days in the future.
func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// GetSession loads the latest session snapshot of a website.
func (c *Client) GetSession(ctx context.Context, websiteID string) (domain.Snapshot, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            key(websiteID, skSession),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Snapshot{}, ErrNotFound
	}

	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return domain.Snapshot{}, fmt.Errorf("repository: GetSession unmarshal: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(rec.Snapshot), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("repository: GetSession decode snapshot: %w", err)
	}
	snap.Version = rec.Version
	return snap, nil
}

// PutSession stores snap if the stored version still equals expectedVersion.
// An expectedVersion of 0 requires that no session exists yet.
func (c *Client) PutSession(ctx context.Context, snap domain.Snapshot, expectedVersion int) error {
	put, err := c.sessionPut(snap, expectedVersion)
	if err != nil {
		return fmt.Errorf("repository: PutSession: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 put.TableName,
		Item:                      put.Item,
		ConditionExpression:       put.ConditionExpression,
		ExpressionAttributeNames:  put.ExpressionAttributeNames,
		ExpressionAttributeValues: put.ExpressionAttributeValues,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrVersionConflict
		}
		return fmt.Errorf("repository: PutSession: %w", err)
	}
	return nil
}

// CompleteSession stores the final snapshot and marks the onboarding complete in one
// transaction.
func (c *Client) CompleteSession(ctx context.Context, snap domain.Snapshot, expectedVersion int) error {
	put, err := c.sessionPut(snap, expectedVersion)
	if err != nil {
		return fmt.Errorf("repository: CompleteSession: %w", err)
	}
	meta, err := attributevalue.MarshalMap(metaRecord{
		PK:          sitePK(snap.WebsiteID),
		SK:          skMeta,
		WebsiteID:   snap.WebsiteID,
		Completed:   true,
		CompletedAt: c.now().UTC().Format(time.RFC3339),
		TTL:         c.ttlValue(),
	})
	if err != nil {
		return fmt.Errorf("repository: CompleteSession marshal meta: %w", err)
	}

	_, err = c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{Put: &types.Put{TableName: aws.String(c.tableName), Item: meta}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, r := range canceled.CancellationReasons {
				if aws.ToString(r.Code) == "ConditionalCheckFailed" {
					return ErrVersionConflict
				}
			}
		}
		return fmt.Errorf("repository: CompleteSession: %w", err)
	}
	return nil
}

func (c *Client) sessionPut(snap domain.Snapshot, expectedVersion int) (*types.Put, error) {
	if strings.TrimSpace(snap.WebsiteID) == "" {
		return nil, errors.New("website id is required")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	item, err := attributevalue.MarshalMap(sessionRecord{
		PK:        sitePK(snap.WebsiteID),
		SK:        skSession,
		WebsiteID: snap.WebsiteID,
		Version:   snap.Version,
		Cursor:    string(snap.Cursor),
		Snapshot:  string(body),
		UpdatedAt: c.now().UTC().Format(time.RFC3339Nano),
		TTL:       c.ttlValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	put := &types.Put{TableName: aws.String(c.tableName), Item: item}
	if expectedVersion == 0 {
		put.ConditionExpression = aws.String("attribute_not_exists(PK)")
		return put, nil
	}
	put.ConditionExpression = aws.String("#version = :expected")
	put.ExpressionAttributeNames = map[string]string{"#version": "version"}
	put.ExpressionAttributeValues = map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
	}
	return put, nil
}

// SaveStep writes the delta of one step. Later saves of the same step replace earlier ones.
func (c *Client) SaveStep(ctx context.Context, websiteID string, stepIndex int, patch map[string]any) error {
	if strings.TrimSpace(websiteID) == "" {
		return errors.New("repository: SaveStep: website id is required")
	}
	item, err := attributevalue.MarshalMap(StepRecord{
		PK:        sitePK(websiteID),
		SK:        stepSK(stepIndex),
		WebsiteID: websiteID,
		StepIndex: stepIndex,
		Patch:     patch,
		SavedAt:   c.now().UTC().Format(time.RFC3339Nano),
		TTL:       c.ttlValue(),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveStep marshal: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: SaveStep: %w", err)
	}
	return nil
}

// ListSteps returns the autosaved step records of a website ordered by step index.
func (c *Client) ListSteps(ctx context.Context, websiteID string) ([]StepRecord, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sitePK(websiteID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixStep},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListSteps query: %w", err)
	}

	records := make([]StepRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("repository: ListSteps unmarshal: %w", err)
	}
	return records, nil
}

// ReserveDeadline stores deadline as the reservation deadline of a website unless one
// exists, and returns the stored deadline.
func (c *Client) ReserveDeadline(ctx context.Context, websiteID string, deadline time.Time) (time.Time, error) {
	item, err := attributevalue.MarshalMap(reservationRecord{
		PK:        sitePK(websiteID),
		SK:        skReservation,
		WebsiteID: websiteID,
		Deadline:  deadline.UTC().Format(time.RFC3339),
		TTL:       c.ttlValue(),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline marshal: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err == nil {
		return deadline.UTC().Truncate(time.Second), nil
	}
	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline: %w", err)
	}

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            key(websiteID, skReservation),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline: %w", ErrNotFound)
	}
	var rec reservationRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline unmarshal: %w", err)
	}
	existing, err := time.Parse(time.RFC3339, rec.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: ReserveDeadline parse deadline: %w", err)
	}
	return existing, nil
}
