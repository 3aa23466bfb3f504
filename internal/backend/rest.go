package backend

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/errors"
)

const (
	defaultTimeout = 15 * time.Second
	restBasePath   = "/rest/v1/"
	userAgent      = "DozenDreams/1.0"
)

// Client talks to the hosted backend's data API. The zero value is not
// usable; construct with NewClient.
//
// The client carries the project API key on every request. A per-user
// bearer token can be layered on with WithToken so the backend's row-level
// access rules apply to that user.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithToken returns a shallow copy that authenticates requests as the user
// holding the given access token. An empty token falls back to the API key.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Select implements Reader. dest must be a pointer to a slice.
func (c *Client) Select(ctx context.Context, q Query, dest any) error {
	body, err := c.do(ctx, http.MethodGet, restBasePath+q.Table, encodeQuery(q), nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Upstream("decoding backend rows").WithCause(err)
	}
	return nil
}

// Insert implements Writer.
func (c *Client) Insert(ctx context.Context, table string, record, dest any) error {
	return c.write(ctx, http.MethodPost, table, record, dest, nil, nil)
}

// Upsert implements Writer. Conflicting rows are merged rather than
// rejected.
func (c *Client) Upsert(ctx context.Context, table string, record, dest any) error {
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"}
	return c.write(ctx, http.MethodPost, table, record, dest, nil, headers)
}

// Update implements Writer. At least one filter is required so a bug can
// never rewrite a whole table.
func (c *Client) Update(ctx context.Context, table string, set any, filters ...Filter) error {
	if len(filters) == 0 {
		return errors.Validation("update requires at least one filter")
	}
	return c.write(ctx, http.MethodPatch, table, set, nil, filters, nil)
}

// Delete implements Writer. At least one filter is required.
func (c *Client) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return errors.Validation("delete requires at least one filter")
	}
	_, err := c.do(ctx, http.MethodDelete, restBasePath+table, encodeFilters(filters), nil, nil)
	return err
}

func (c *Client) write(ctx context.Context, method, table string, record, dest any, filters []Filter, headers map[string]string) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Internal("encoding backend record").WithCause(err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Prefer"]; !ok {
		if dest != nil {
			headers["Prefer"] = "return=representation"
		} else {
			headers["Prefer"] = "return=minimal"
		}
	}
	body, err := c.do(ctx, method, restBasePath+table, encodeFilters(filters), payload, headers)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	// Write responses come back as a one-element array.
	var rows []jsontext.Value
	if err := json.Unmarshal(body, &rows); err != nil {
		return errors.Upstream("decoding backend response").WithCause(err)
	}
	if len(rows) == 0 {
		return errors.ErrNotFound
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return errors.Upstream("decoding backend row").WithCause(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, headers map[string]string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, errors.Internal("creating backend request").WithCause(err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("apikey", c.apiKey)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Upstream("backend unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Upstream("reading backend response").WithCause(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

func statusError(status int, body []byte) error {
	msg := upstreamMessage(body)
	switch status {
	case http.StatusUnauthorized:
		return errors.Unauthorized(msg)
	case http.StatusForbidden:
		return errors.Forbidden(msg)
	case http.StatusNotFound:
		return errors.NotFound(msg)
	case http.StatusConflict:
		return errors.Conflict(msg)
	default:
		return errors.Upstreamf("backend returned %d: %s", status, msg)
	}
}

func upstreamMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, m := range []string{parsed.Message, parsed.Msg, parsed.Error} {
			if m != "" {
				return m
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "backend request failed"
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// encodeQuery renders a Query into the backend's filter querystring
// dialect, e.g. price=lte.50000000&category_id=in.(1,2)&order=id.asc.
func encodeQuery(q Query) url.Values {
	values := encodeFilters(q.Filters)
	if len(q.Columns) > 0 {
		values.Set("select", strings.Join(q.Columns, ","))
	}
	if len(q.AnyOf) > 0 {
		parts := make([]string, len(q.AnyOf))
		for i, f := range q.AnyOf {
			parts[i] = fmt.Sprintf("%s.%s.%s", f.Column, f.Op, encodeValue(f))
		}
		values.Set("or", "("+strings.Join(parts, ",")+")")
	}
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		values.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		values.Set("limit", fmt.Sprint(q.Limit))
	}
	return values
}

func encodeFilters(filters []Filter) url.Values {
	values := url.Values{}
	for _, f := range filters {
		values.Add(f.Column, string(f.Op)+"."+encodeValue(f))
	}
	return values
}

func encodeValue(f Filter) string {
	switch f.Op {
	case OpIn:
		items, _ := f.Value.([]any)
		parts := make([]string, len(items))
		for i, v := range items {
			parts[i] = fmt.Sprint(v)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case OpContains:
		// The wire dialect uses * as the substring wildcard.
		return "*" + fmt.Sprint(f.Value) + "*"
	default:
		return fmt.Sprint(f.Value)
	}
}
