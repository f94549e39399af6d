/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

const (
	pkAttr         = "PK"
	skAttr         = "SK"
	entityTypeAttr = "EntityType"
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills every template of indexMap with the record's values, e.g.
// "USER#{id}" becomes "USER#42". Unknown fields expand to "".
func expandMacros(indexMap map[string]string, record storagemodels.Record) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for field, template := range indexMap {
		res[field] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			val, ok := av[strings.Trim(macro, "{}")]
			if !ok {
				return ""
			}
			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
	}
	return res, nil
}

// expandStringKey replaces every macro of indexMap with key. Used when only the id
// of a model is known.
func expandStringKey(indexMap map[string]string, key string) map[string]string {
	expanded := make(map[string]string, len(indexMap))
	for field, template := range indexMap {
		expanded[field] = macroPattern.ReplaceAllLiteralString(template, key)
	}
	return expanded
}

// buildKey returns the primary key of an expanded index map.
func buildKey(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, sk := expanded[pkAttr], expanded[skAttr]
	if pk == "" || sk == "" {
		return nil, errors.NewValidationError("key", "expanded index map is missing PK or SK")
	}
	return map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: pk},
		skAttr: &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// toItem marshals a record and adds its expanded keys and entity type.
func toItem(record storagemodels.Record, expanded map[string]string, entityType string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	for k, v := range expanded {
		if v != "" {
			item[k] = &types.AttributeValueMemberS{Value: v}
		}
	}
	if entityType != "" {
		item[entityTypeAttr] = &types.AttributeValueMemberS{Value: entityType}
	}
	return item, nil
}

// fromItem unmarshals an item and drops the index and type attributes so the
// record holds model data only.
func fromItem(item map[string]types.AttributeValue, indexMap map[string]string) (storagemodels.Record, error) {
	var rec storagemodels.Record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	for field := range indexMap {
		delete(rec, field)
	}
	delete(rec, entityTypeAttr)
	return rec, nil
}
