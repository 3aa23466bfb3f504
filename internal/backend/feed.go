package backend

import (
	"bufio"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/errors"
)

const (
	feedPath           = "/realtime/v1/changes"
	feedBuffer         = 64
	initialBackoff     = time.Second
	maxBackoff         = 30 * time.Second
	backoffJitterRatio = 0.2
)

// FeedClient consumes the backend's row-level change stream. Each
// subscription holds one long-lived streaming request; dropped connections
// are re-established with exponential backoff until the subscription is
// closed.
type FeedClient struct {
	client *Client
	logger *slog.Logger
}

// NewFeedClient wraps a Client for change subscriptions.
func NewFeedClient(client *Client, logger *slog.Logger) *FeedClient {
	return &FeedClient{client: client, logger: logger}
}

// Subscribe implements Feed. The returned subscription delivers changes to
// rows of table matching filter, in server arrival order.
func (f *FeedClient) Subscribe(ctx context.Context, table string, filter *Filter) (*Subscription, error) {
	if table == "" {
		return nil, errors.Validation("subscription requires a table")
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(feedBuffer, cancel)

	query := url.Values{"table": {table}}
	if filter != nil {
		query.Add(filter.Column, string(filter.Op)+"."+encodeValue(*filter))
	}
	streamURL := f.client.baseURL + feedPath + "?" + query.Encode()

	go f.run(ctx, sub, table, streamURL)
	return sub, nil
}

func (f *FeedClient) run(ctx context.Context, sub *Subscription, table, streamURL string) {
	defer sub.Close()

	backoff := initialBackoff
	for {
		connected, err := f.stream(ctx, sub, table, streamURL)
		if ctx.Err() != nil {
			return
		}
		select {
		case <-sub.Done():
			return
		default:
		}
		if err != nil {
			f.logger.Warn("change stream dropped", "table", table, "error", err)
		}
		if connected {
			backoff = initialBackoff
		}

		jitter := time.Duration(rand.Float64() * backoffJitterRatio * float64(backoff))
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case <-time.After(backoff + jitter):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// stream holds one connection open and forwards its events. Returns whether
// the connection was established at all, and the terminal error.
func (f *FeedClient) stream(ctx context.Context, sub *Subscription, table, streamURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("apikey", f.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+f.client.apiKey)

	// Streaming requests must not inherit the short request timeout.
	httpClient := &http.Client{Transport: f.client.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.Upstreamf("change stream returned %d", resp.StatusCode)
	}

	f.logger.Debug("change stream connected", "table", table)

	var eventName, data string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			f.dispatch(sub, table, eventName, data)
			eventName, data = "", ""
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data != "" {
				data += "\n"
			}
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case strings.HasPrefix(line, ":"):
			// Heartbeat comment, keeps proxies from idling the stream out.
		}
	}
	return true, scanner.Err()
}

func (f *FeedClient) dispatch(sub *Subscription, table, eventName, data string) {
	var kind EventKind
	switch eventName {
	case "insert", "INSERT":
		kind = EventInsert
	case "update", "UPDATE":
		kind = EventUpdate
	case "delete", "DELETE":
		kind = EventDelete
	default:
		return
	}
	if data == "" {
		return
	}

	var envelope struct {
		Table  string          `json:"table"`
		Record jsontext.Value `json:"record"`
	}
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		f.logger.Warn("discarding malformed change event", "table", table, "error", err)
		return
	}
	record := envelope.Record
	if record == nil {
		// Some deployments send the bare row without an envelope.
		record = jsontext.Value(data)
	}

	sub.Publish(ChangeEvent{
		Kind:   kind,
		Table:  table,
		Record: record,
		At:     time.Now().UTC(),
	})
}
