/*
Package storagemodels defines the data structures shared by requests, proxies and models.

Key Types:

Record:
One row of raw model data, a map from attribute name to value.

Params:
The opaque key/value bag a request hands to its proxy. Only the proxy interprets it:

	params := storagemodels.Params{
	    "KeyConditionExpression": "PK = :pk",
	}

ResultSet:
The normalized result of a storage operation:

	rs := storagemodels.NewResultSet(records,
	    storagemodels.WithTotalCount(1200),
	    storagemodels.WithMessage("ok"),
	)
	for _, rec := range rs.Records() {
	    ...
	}

A single record is normalized into a one-element slice the first time Records is
called. TotalCount defaults to the number of records when the backend reports none.

These types provide a consistent shape across the different proxy implementations.
*/
package storagemodels
