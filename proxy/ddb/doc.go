/*
Package ddb provides a DynamoDB proxy for single-table designs.

Each model name maps to an index map registered with registry.RegisterIndexMap.
Its templates use macros that are replaced with record values when a model is
written:

	registry.RegisterIndexMap("player", map[string]string{
	    "PK":     "PLAYER#{id}",    // Becomes "PLAYER#123"
	    "SK":     "PROFILE",        // Static value
	    "GSI1PK": "EMAIL#{email}",  // Secondary index key
	})

Writes add an EntityType attribute holding the model name; collection reads
filter on it so several models can share the table. Throttled calls are retried
with linear backoff (options maxRetries and retryBackoff).
*/
package ddb
