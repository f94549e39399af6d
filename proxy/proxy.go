/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// Factory builds a proxy from its configuration.
type Factory func(cfg Config) (request.Proxy, error)

// Config describes one proxy instance.
type Config struct {
	// Type selects the registered factory, e.g. "memory" or "rest".
	Type string
	// Name identifies the instance in logs and metrics. Defaults to Type.
	Name string

	// Reader parses backend payloads. Defaults to a JSON reader.
	Reader codec.Reader
	// Writer serializes records. Defaults to a JSON writer.
	Writer codec.Writer

	// Options holds type specific settings.
	Options map[string]any

	Logger *zap.SugaredLogger
}

// Aborter is implemented by proxies that can cancel in-flight I/O for a request.
type Aborter interface {
	Abort(req request.Request)
}

// Base carries what every proxy shares: identity, codecs, options and logger.
// Concrete proxies embed it.
type Base struct {
	name    string
	typ     string
	reader  codec.Reader
	writer  codec.Writer
	options map[string]any
	logger  *zap.SugaredLogger
}

// NewBase fills in the defaults for a proxy of the given type.
func NewBase(typ string, cfg Config) Base {
	b := Base{
		name:    cfg.Name,
		typ:     strings.ToLower(typ),
		reader:  cfg.Reader,
		writer:  cfg.Writer,
		options: cfg.Options,
		logger:  cfg.Logger,
	}
	if b.name == "" {
		b.name = b.typ
	}
	if b.reader == nil {
		b.reader = codec.NewJSONReader()
	}
	if b.writer == nil {
		b.writer = codec.NewJSONWriter()
	}
	if b.options == nil {
		b.options = map[string]any{}
	}
	if b.logger == nil {
		b.logger = zap.S()
	}
	b.logger = b.logger.With("proxy", b.name)
	return b
}

// Name returns the instance name.
func (b *Base) Name() string { return b.name }

// Type returns the registered type name.
func (b *Base) Type() string { return b.typ }

// Reader returns the payload reader.
func (b *Base) Reader() codec.Reader { return b.reader }

// Writer returns the record writer.
func (b *Base) Writer() codec.Writer { return b.writer }

// Logger returns the proxy logger.
func (b *Base) Logger() *zap.SugaredLogger { return b.logger }

// Option returns the raw option value.
func (b *Base) Option(key string) (any, bool) {
	v, ok := b.options[key]
	return v, ok
}

// StringOption returns the option as a string, def when unset.
func (b *Base) StringOption(key, def string) string {
	v, ok := b.options[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IntOption returns the option as an int, def when unset or not numeric.
func (b *Base) IntOption(key string, def int) int {
	switch v := b.options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// DurationOption accepts durations, Go duration strings and milliseconds.
func (b *Base) DurationOption(key string, def time.Duration) time.Duration {
	switch v := b.options[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

// BoolOption returns the option as a bool, def when unset.
func (b *Base) BoolOption(key string, def bool) bool {
	switch v := b.options[key].(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

// Succeed settles req with rs.
func (b *Base) Succeed(req request.Request, rs *storagemodels.ResultSet) {
	req.SetResultSet(rs)
	req.SetSuccess()
}

// Fail settles req with err wrapped in a StorageError naming this proxy.
func (b *Base) Fail(req request.Request, err error) {
	b.logger.Errorw("Request failed", "action", req.Action(), "error", err)
	req.SetException(errors.NewStorageError(b.name, string(req.Action()), err))
}

// Window slices records to the start/limit window of a read request.
func Window(records []storagemodels.Record, req *request.ReadRequest) []storagemodels.Record {
	start, limit := req.Start(), req.Limit()
	if start >= len(records) {
		return []storagemodels.Record{}
	}
	end := len(records)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return records[start:end]
}
