/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package rest provides a proxy that talks to a JSON HTTP resource.
//
// Actions map to verbs on the configured url:
//
//	create   POST   <url>
//	read     GET    <url>[/<id>]?page=&start=&limit=
//	update   PUT    <url>/<id>     (or <url> for several models)
//	destroy  DELETE <url>/<id>     (or <url> for several models)
//
// Request bodies come from the proxy's writer and responses go through its
// reader. Any non-2xx status fails the request.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// Type is the registered proxy type name.
const Type = "rest"

func init() {
	proxy.DefaultRegistry.MustRegister(Type, New)
	proxy.DefaultRegistry.MustRegister("ajax", New)
}

// Proxy sends requests to one HTTP resource.
//
// Options:
//   - url: resource url (required)
//   - timeout: per request timeout (default 30s)
//   - headers: map of extra request headers
//   - pageParam, startParam, limitParam: query parameter names; "" disables one
type Proxy struct {
	proxy.Base

	url     string
	client  *http.Client
	headers map[string]string

	pageParam  string
	startParam string
	limitParam string

	inflight proxy.Inflight
}

// New is the registry factory.
func New(cfg proxy.Config) (request.Proxy, error) {
	return NewProxy(cfg, nil)
}

// NewProxy creates a REST proxy. A nil client gets a client with the configured timeout.
func NewProxy(cfg proxy.Config, client *http.Client) (*Proxy, error) {
	p := &Proxy{Base: proxy.NewBase(Type, cfg)}

	p.url = strings.TrimRight(p.StringOption("url", ""), "/")
	if p.url == "" {
		return nil, errors.NewConfigError("rest proxy", "url option is required")
	}
	if _, err := url.Parse(p.url); err != nil {
		return nil, errors.NewConfigError("rest proxy", fmt.Sprintf("invalid url %q: %v", p.url, err))
	}

	if client == nil {
		client = &http.Client{Timeout: p.DurationOption("timeout", 30*time.Second)}
	}
	p.client = client

	p.headers = map[string]string{}
	if h, ok := p.Option("headers"); ok {
		if m, ok := h.(map[string]any); ok {
			for k, v := range m {
				p.headers[k] = fmt.Sprint(v)
			}
		}
	}

	p.pageParam = p.StringOption("pageParam", "page")
	p.startParam = p.StringOption("startParam", "start")
	p.limitParam = p.StringOption("limitParam", "limit")
	return p, nil
}

// URL returns the resource url.
func (p *Proxy) URL() string { return p.url }

// Read issues a GET for one model or a page of the collection.
func (p *Proxy) Read(ctx context.Context, req *request.ReadRequest) {
	target := p.url
	if req.HasModelID() {
		target += "/" + url.PathEscape(req.ModelID())
	}

	q := url.Values{}
	if req.Limit() > 0 {
		setParam(q, p.pageParam, req.Page())
		setParam(q, p.startParam, req.Start())
		setParam(q, p.limitParam, req.Limit())
	}
	for k, v := range req.Params() {
		q.Set(k, fmt.Sprint(v))
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	p.do(ctx, req, http.MethodGet, target, nil)
}

// Create POSTs the request's records.
func (p *Proxy) Create(ctx context.Context, req *request.WriteRequest) {
	p.write(ctx, req, http.MethodPost, p.url)
}

// Update PUTs the request's records.
func (p *Proxy) Update(ctx context.Context, req *request.WriteRequest) {
	p.write(ctx, req, http.MethodPut, p.modelURL(req))
}

// Destroy DELETEs the request's models.
func (p *Proxy) Destroy(ctx context.Context, req *request.WriteRequest) {
	p.write(ctx, req, http.MethodDelete, p.modelURL(req))
}

// Abort cancels the HTTP call of an in-flight request.
func (p *Proxy) Abort(req request.Request) {
	if p.inflight.Abort(req) {
		p.Logger().Debugw("Aborted request", "action", req.Action())
	}
}

func (p *Proxy) modelURL(req *request.WriteRequest) string {
	models := req.Models()
	if len(models) == 1 && models[0].ID() != "" {
		return p.url + "/" + url.PathEscape(models[0].ID())
	}
	return p.url
}

func (p *Proxy) write(ctx context.Context, req *request.WriteRequest, method, target string) {
	records := req.Records()
	body, err := p.Writer().Write(records)
	if err != nil {
		p.Fail(req, err)
		return
	}

	p.do(ctx, req, method, target, body)
}

func (p *Proxy) do(ctx context.Context, req request.Request, method, target string, body []byte) {
	ctx, release := p.inflight.Track(ctx, req)
	defer release()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		p.Fail(req, err)
		return
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	p.Logger().Debugw("Sending request", "method", method, "url", target)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		p.Fail(req, err)
		return
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		p.Fail(req, err)
		return
	}

	if resp.StatusCode == http.StatusNotFound {
		p.Fail(req, errors.NewNotFoundError(p.Name(), target))
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.Fail(req, fmt.Errorf("%s %s: unexpected status %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(payload))))
		return
	}

	rs, err := p.result(req, payload)
	if err != nil {
		p.Fail(req, err)
		return
	}
	p.Succeed(req, rs)
}

// result reads the response body. Writes answered without a body echo the
// records that were sent.
func (p *Proxy) result(req request.Request, payload []byte) (*storagemodels.ResultSet, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		if w, ok := req.(*request.WriteRequest); ok {
			return storagemodels.NewResultSet(w.Records()), nil
		}
		return storagemodels.NewResultSet(nil), nil
	}
	return p.Reader().Read(payload)
}

func setParam(q url.Values, name string, value int) {
	if name != "" {
		q.Set(name, strconv.Itoa(value))
	}
}
