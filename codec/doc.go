/*
Package codec converts between raw backend payloads and ResultSets.

A Reader turns whatever a backend returns (decoded JSON, bytes, strings) into a
storagemodels.ResultSet. A Writer is its inverse and serializes records for the
backend. Proxies default to the JSON flavored implementations:

	reader := &codec.JSONReader{Root: "data.users", TotalProperty: "meta.total"}
	rs, err := reader.Read([]byte(`{"data":{"users":[{"id":"1"}]},"meta":{"total":40}}`))
	// rs.Records() == [{"id":"1"}], rs.TotalCount() == 40

	writer := codec.NewJSONWriter()
	body, err := writer.Write(records)
*/
package codec
