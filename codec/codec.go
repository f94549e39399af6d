/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"github.com/suparena/modelstore/storagemodels"
)

// Reader turns a raw backend payload into a ResultSet.
type Reader interface {
	Read(raw any) (*storagemodels.ResultSet, error)
}

// Writer serializes records for a backend. It is the inverse of Reader.
type Writer interface {
	Write(records []storagemodels.Record) ([]byte, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(raw any) (*storagemodels.ResultSet, error)

func (f ReaderFunc) Read(raw any) (*storagemodels.ResultSet, error) {
	return f(raw)
}
