/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// Type is the registered proxy type name.
const Type = "dynamodb"

func init() {
	proxy.DefaultRegistry.MustRegister(Type, New)
}

// Client is the part of the DynamoDB API the proxy calls. *dynamodb.Client
// implements it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
}

// Proxy stores models in one DynamoDB table, keyed through the index map
// registered for each model name with registry.RegisterIndexMap.
//
// Options:
//   - table: table name (required)
//   - model: model name used for reads without a "model" request param
//   - region, accessKey, secretKey, endpoint: client settings
//   - maxRetries, retryBackoff: retry policy for throttled calls
//
// Collection reads use Query when the request params carry "pk" (optionally
// "skPrefix" and "index"), and Scan otherwise. DynamoDB has no offsets, so the
// start/limit window is applied after reading every matching page.
type Proxy struct {
	proxy.Base

	client Client
	table  string
	model  string
	retry  RetryOptions
}

// New is the registry factory. It builds an AWS client from the options.
func New(cfg proxy.Config) (request.Proxy, error) {
	base := proxy.NewBase(Type, cfg)
	client, err := NewClient(context.Background(), ClientSettings{
		Region:    base.StringOption("region", ""),
		AccessKey: base.StringOption("accessKey", ""),
		SecretKey: base.StringOption("secretKey", ""),
		Endpoint:  base.StringOption("endpoint", ""),
	})
	if err != nil {
		return nil, err
	}
	return newProxy(base, client)
}

// NewProxy creates a proxy on an existing client.
func NewProxy(cfg proxy.Config, client Client) (*Proxy, error) {
	return newProxy(proxy.NewBase(Type, cfg), client)
}

func newProxy(base proxy.Base, client Client) (*Proxy, error) {
	table := base.StringOption("table", "")
	if table == "" {
		return nil, errors.NewConfigError("dynamodb proxy", "table option is required")
	}
	if client == nil {
		return nil, errors.NewConfigError("dynamodb proxy", "client is required")
	}

	retry := DefaultRetryOptions()
	retry.MaxRetries = base.IntOption("maxRetries", retry.MaxRetries)
	retry.RetryBackoff = base.DurationOption("retryBackoff", retry.RetryBackoff)

	return &Proxy{
		Base:   base,
		client: client,
		table:  table,
		model:  base.StringOption("model", ""),
		retry:  retry,
	}, nil
}

// ClientSettings configures NewClient. Empty fields fall back to the AWS default
// configuration chain.
type ClientSettings struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// NewClient initializes a DynamoDB client.
func NewClient(ctx context.Context, s ClientSettings) (*sdk.Client, error) {
	var opts []func(*config.LoadOptions) error
	if s.Region != "" {
		opts = append(opts, config.WithRegion(s.Region))
	}
	if s.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	}), nil
}

// Table returns the table name.
func (p *Proxy) Table() string { return p.table }

func (p *Proxy) indexMap(modelName string) (map[string]string, error) {
	if modelName == "" {
		return nil, errors.NewConfigError("dynamodb proxy", "no model name for request")
	}
	m, ok := registry.GetIndexMap(modelName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNoIndexMap, modelName)
	}
	return m, nil
}

// Read loads one model with GetItem, or a window of a collection with Query or Scan.
func (p *Proxy) Read(ctx context.Context, req *request.ReadRequest) {
	modelName := req.Params().String("model")
	if modelName == "" {
		modelName = p.model
	}
	indexMap, err := p.indexMap(modelName)
	if err != nil {
		p.Fail(req, err)
		return
	}

	if req.HasModelID() {
		p.readOne(ctx, req, indexMap)
		return
	}

	items, err := p.readAll(ctx, req, modelName)
	if err != nil {
		p.Fail(req, err)
		return
	}

	records := make([]storagemodels.Record, 0, len(items))
	for _, item := range items {
		rec, err := fromItem(item, indexMap)
		if err != nil {
			p.Fail(req, err)
			return
		}
		records = append(records, rec)
	}
	p.Succeed(req, storagemodels.NewResultSet(proxy.Window(records, req), storagemodels.WithTotalCount(len(records))))
}

func (p *Proxy) readOne(ctx context.Context, req *request.ReadRequest, indexMap map[string]string) {
	key, err := buildKey(expandStringKey(indexMap, req.ModelID()))
	if err != nil {
		p.Fail(req, err)
		return
	}

	out, err := withRetry(ctx, p.retry, func() (*sdk.GetItemOutput, error) {
		return p.client.GetItem(ctx, &sdk.GetItemInput{TableName: &p.table, Key: key})
	})
	if err != nil {
		p.Fail(req, fmt.Errorf("GetItem error: %w", err))
		return
	}
	if out.Item == nil {
		p.Fail(req, errors.NewNotFoundError(p.table, req.ModelID()))
		return
	}

	rec, err := fromItem(out.Item, indexMap)
	if err != nil {
		p.Fail(req, err)
		return
	}
	p.Succeed(req, storagemodels.NewResultSet(rec))
}

// readAll pages through every item matching the request.
func (p *Proxy) readAll(ctx context.Context, req *request.ReadRequest, modelName string) ([]map[string]types.AttributeValue, error) {
	params := req.Params()
	values := map[string]types.AttributeValue{
		":type": &types.AttributeValueMemberS{Value: modelName},
	}
	names := map[string]string{"#type": entityTypeAttr}
	filter := "#type = :type"

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	if pk := params.String("pk"); pk != "" {
		pkName, skName := pkAttr, skAttr
		var indexName *string
		if idx := params.String("index"); idx != "" {
			gsi, ok := GetGSIConfig(idx)
			if !ok {
				return nil, errors.NewValidationError("index", fmt.Sprintf("unknown index %q", idx))
			}
			pkName, skName = gsi.PartitionKeyName, gsi.SortKeyName
			indexName = aws.String(gsi.IndexName)
		}

		keyCond := "#pk = :pk"
		names["#pk"] = pkName
		values[":pk"] = &types.AttributeValueMemberS{Value: pk}
		if prefix := params.String("skPrefix"); prefix != "" {
			keyCond += " AND begins_with(#sk, :sk)"
			names["#sk"] = skName
			values[":sk"] = &types.AttributeValueMemberS{Value: prefix}
		}

		for {
			input := &sdk.QueryInput{
				TableName:                 &p.table,
				IndexName:                 indexName,
				KeyConditionExpression:    &keyCond,
				FilterExpression:          &filter,
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
				ExclusiveStartKey:         lastKey,
			}
			out, err := withRetry(ctx, p.retry, func() (*sdk.QueryOutput, error) {
				return p.client.Query(ctx, input)
			})
			if err != nil {
				return nil, fmt.Errorf("query error: %w", err)
			}
			items = append(items, out.Items...)
			if lastKey = out.LastEvaluatedKey; len(lastKey) == 0 {
				return items, nil
			}
		}
	}

	for {
		input := &sdk.ScanInput{
			TableName:                 &p.table,
			FilterExpression:          &filter,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         lastKey,
		}
		out, err := withRetry(ctx, p.retry, func() (*sdk.ScanOutput, error) {
			return p.client.Scan(ctx, input)
		})
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, out.Items...)
		if lastKey = out.LastEvaluatedKey; len(lastKey) == 0 {
			return items, nil
		}
	}
}

// Create puts new items. Models without an id get a uuid; an existing key fails
// the request.
func (p *Proxy) Create(ctx context.Context, req *request.WriteRequest) {
	p.put(ctx, req, true)
}

// Update overwrites existing items; a missing key fails the request.
func (p *Proxy) Update(ctx context.Context, req *request.WriteRequest) {
	p.put(ctx, req, false)
}

func (p *Proxy) put(ctx context.Context, req *request.WriteRequest, create bool) {
	condition := "attribute_exists(PK)"
	if create {
		condition = "attribute_not_exists(PK)"
	}

	written := make([]storagemodels.Record, 0, len(req.Models()))
	for _, m := range req.Models() {
		indexMap, err := p.indexMap(m.ModelName())
		if err != nil {
			p.Fail(req, err)
			return
		}

		rec := cloneRecord(m.PersistedData())
		idAttr := m.IDAttribute()
		if create && idOf(rec, idAttr) == "" {
			rec[idAttr] = uuid.NewString()
		}
		id := idOf(rec, idAttr)

		expanded, err := expandMacros(indexMap, rec)
		if err != nil {
			p.Fail(req, err)
			return
		}
		if _, err := buildKey(expanded); err != nil {
			p.Fail(req, err)
			return
		}
		item, err := toItem(rec, expanded, m.ModelName())
		if err != nil {
			p.Fail(req, err)
			return
		}

		_, err = withRetry(ctx, p.retry, func() (*sdk.PutItemOutput, error) {
			return p.client.PutItem(ctx, &sdk.PutItemInput{
				TableName:           &p.table,
				Item:                item,
				ConditionExpression: aws.String(condition),
			})
		})
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			switch {
			case stderrors.As(err, &cfe) && create:
				p.Fail(req, errors.NewAlreadyExistsError(m.ModelName(), id))
			case stderrors.As(err, &cfe):
				p.Fail(req, errors.NewNotFoundError(m.ModelName(), id))
			default:
				p.Fail(req, fmt.Errorf("PutItem failed: %w", err))
			}
			return
		}
		written = append(written, rec)
	}
	p.Succeed(req, storagemodels.NewResultSet(written))
}

// Destroy deletes the items of the request's models; a missing key fails the request.
func (p *Proxy) Destroy(ctx context.Context, req *request.WriteRequest) {
	removed := make([]storagemodels.Record, 0, len(req.Models()))
	for _, m := range req.Models() {
		indexMap, err := p.indexMap(m.ModelName())
		if err != nil {
			p.Fail(req, err)
			return
		}

		rec := cloneRecord(m.PersistedData())
		if m.ID() != "" {
			rec[m.IDAttribute()] = m.ID()
		}
		expanded, err := expandMacros(indexMap, rec)
		if err != nil {
			p.Fail(req, err)
			return
		}
		key, err := buildKey(expanded)
		if err != nil {
			p.Fail(req, err)
			return
		}

		_, err = withRetry(ctx, p.retry, func() (*sdk.DeleteItemOutput, error) {
			return p.client.DeleteItem(ctx, &sdk.DeleteItemInput{
				TableName:           &p.table,
				Key:                 key,
				ConditionExpression: aws.String("attribute_exists(PK)"),
			})
		})
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			if stderrors.As(err, &cfe) {
				p.Fail(req, errors.NewNotFoundError(m.ModelName(), m.ID()))
				return
			}
			p.Fail(req, fmt.Errorf("failed to delete item in DynamoDB: %w", err))
			return
		}
		removed = append(removed, rec)
	}
	p.Succeed(req, storagemodels.NewResultSet(removed))
}

func idOf(rec storagemodels.Record, property string) string {
	v, ok := rec[property]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func cloneRecord(rec storagemodels.Record) storagemodels.Record {
	out := make(storagemodels.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
