/*
Package modelstore provides typed models and collections on top of pluggable
storage proxies, with an asynchronous request and operation lifecycle.

The library is layered:
  - attribute: typed attribute descriptors and their converters
  - request: read and write requests grouped in ordered batches
  - proxy: the storage backends (memory, web storage, REST, DynamoDB)
  - operation: the cancellable handle a load, save or destroy returns
  - model: model classes, instances and collections

Key Features:
  - Attribute conversion that never fails on bad input
  - Backends selected by type name from a registry
  - Batch ids so that the last issued load wins over a late, older one
  - Abort of in-flight requests on proxies that support it
  - Semantic error types for better error handling

Basic Usage:

	// Build the proxies declared in a config file
	cfg, _ := config.Load("modelstore.yaml")
	store, _ := modelstore.NewStorageFromConfig(cfg)

	// Read the second page of ten records
	op, _ := store.Read(ctx, "people", request.ReadConfig{Page: 2, PageSize: 10})
	if err := op.Wait(ctx); err != nil {
		return err
	}
	records := op.ResultSet().Records()
*/
package modelstore
