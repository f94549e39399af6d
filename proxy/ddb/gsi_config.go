/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// GSIConfig holds the key attribute names of a global secondary index.
type GSIConfig struct {
	// IndexName is the GSI name in DynamoDB, e.g. "GSI1".
	IndexName string
	// PartitionKeyName is the GSI partition key attribute, e.g. "GSI1PK".
	PartitionKeyName string
	// SortKeyName is the GSI sort key attribute, e.g. "GSI1SK".
	SortKeyName string
}

// DefaultGSIConfigs lists the indexes a collection read can target with the
// "index" request param.
var DefaultGSIConfigs = map[string]GSIConfig{
	"GSI1": {
		IndexName:        "GSI1",
		PartitionKeyName: "GSI1PK",
		SortKeyName:      "GSI1SK",
	},
}

// GetGSIConfig returns the configuration of an index.
func GetGSIConfig(indexName string) (GSIConfig, bool) {
	cfg, ok := DefaultGSIConfigs[indexName]
	return cfg, ok
}
