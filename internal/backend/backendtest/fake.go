// Package backendtest provides an in-memory stand-in for the hosted
// backend, implementing the backend.Store and backend.Feed surfaces with
// the same filter semantics the real data API applies.
package backendtest

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/backend"
)

// Row is one stored record.
type Row = map[string]any

// Fake is an in-memory backend. Safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	tables  map[string][]Row
	subs    []*fakeSub
	nextErr error
}

type fakeSub struct {
	table  string
	filter *backend.Filter
	sub    *backend.Subscription
}

// New returns an empty fake backend.
func New() *Fake {
	return &Fake{tables: make(map[string][]Row)}
}

// Seed stores rows without notifying subscribers.
func (f *Fake) Seed(table string, rows ...Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], rows...)
}

// Rows returns a copy of the table's rows in insertion order.
func (f *Fake) Rows(table string) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]Row, len(f.tables[table]))
	copy(rows, f.tables[table])
	return rows
}

// FailNextWith makes the next operation return err.
func (f *Fake) FailNextWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

func (f *Fake) takeErr() error {
	err := f.nextErr
	f.nextErr = nil
	return err
}

// Select implements backend.Reader.
func (f *Fake) Select(ctx context.Context, q backend.Query, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if err := f.takeErr(); err != nil {
		f.mu.Unlock()
		return err
	}

	var matched []Row
	for _, row := range f.tables[q.Table] {
		if !matchesAll(row, q.Filters) {
			continue
		}
		if len(q.AnyOf) > 0 && !matchesAny(row, q.AnyOf) {
			continue
		}
		matched = append(matched, row)
	}
	f.mu.Unlock()

	sortRows(matched, q.Orders)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	encoded, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}

// Insert implements backend.Writer.
func (f *Fake) Insert(ctx context.Context, table string, record, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := toRow(record)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if err := f.takeErr(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.tables[table] = append(f.tables[table], row)
	subs := f.matchingSubs(table, row)
	f.mu.Unlock()

	notify(subs, backend.EventInsert, table, row)
	return decodeInto(row, dest)
}

// Upsert implements backend.Writer, merging on the id column.
func (f *Fake) Upsert(ctx context.Context, table string, record, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := toRow(record)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if err := f.takeErr(); err != nil {
		f.mu.Unlock()
		return err
	}
	kind := backend.EventInsert
	replaced := false
	if id, ok := row["id"]; ok {
		for i, existing := range f.tables[table] {
			if valuesEqual(existing["id"], id) {
				for k, v := range row {
					existing[k] = v
				}
				f.tables[table][i] = existing
				row = existing
				kind = backend.EventUpdate
				replaced = true
				break
			}
		}
	}
	if !replaced {
		f.tables[table] = append(f.tables[table], row)
	}
	subs := f.matchingSubs(table, row)
	f.mu.Unlock()

	notify(subs, kind, table, row)
	return decodeInto(row, dest)
}

// Update implements backend.Writer.
func (f *Fake) Update(ctx context.Context, table string, set any, filters ...backend.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, err := toRow(set)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if err := f.takeErr(); err != nil {
		f.mu.Unlock()
		return err
	}
	type pending struct {
		subs []*backend.Subscription
		row  Row
	}
	var updates []pending
	for i, row := range f.tables[table] {
		if !matchesAll(row, filters) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		f.tables[table][i] = row
		updates = append(updates, pending{f.matchingSubs(table, row), row})
	}
	f.mu.Unlock()

	for _, u := range updates {
		notify(u.subs, backend.EventUpdate, table, u.row)
	}
	return nil
}

// Delete implements backend.Writer.
func (f *Fake) Delete(ctx context.Context, table string, filters ...backend.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if err := f.takeErr(); err != nil {
		f.mu.Unlock()
		return err
	}
	var kept []Row
	type pending struct {
		subs []*backend.Subscription
		row  Row
	}
	var removed []pending
	for _, row := range f.tables[table] {
		if matchesAll(row, filters) {
			removed = append(removed, pending{f.matchingSubs(table, row), row})
			continue
		}
		kept = append(kept, row)
	}
	f.tables[table] = kept
	f.mu.Unlock()

	for _, r := range removed {
		notify(r.subs, backend.EventDelete, table, r.row)
	}
	return nil
}

// Subscribe implements backend.Feed.
func (f *Fake) Subscribe(ctx context.Context, table string, filter *backend.Filter) (*backend.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := backend.NewSubscription(16, cancel)

	f.mu.Lock()
	f.subs = append(f.subs, &fakeSub{table: table, filter: filter, sub: sub})
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.Done():
		}
		sub.Close()
		f.mu.Lock()
		for i, s := range f.subs {
			if s.sub == sub {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
	}()
	return sub, nil
}

// SubscriberCount reports live subscriptions, for teardown assertions.
func (f *Fake) SubscriberCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if s.table == table {
			n++
		}
	}
	return n
}

func (f *Fake) matchingSubs(table string, row Row) []*backend.Subscription {
	var out []*backend.Subscription
	for _, s := range f.subs {
		if s.table != table {
			continue
		}
		if s.filter != nil && !matches(row, *s.filter) {
			continue
		}
		out = append(out, s.sub)
	}
	return out
}

func notify(subs []*backend.Subscription, kind backend.EventKind, table string, row Row) {
	if len(subs) == 0 {
		return
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		return
	}
	event := backend.ChangeEvent{Kind: kind, Table: table, Record: encoded, At: time.Now().UTC()}
	for _, sub := range subs {
		sub.Publish(event)
	}
}

func toRow(record any) (Row, error) {
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var row Row
	if err := json.Unmarshal(encoded, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func decodeInto(row Row, dest any) error {
	if dest == nil {
		return nil
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}

func matchesAll(row Row, filters []backend.Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matchesAny(row Row, filters []backend.Filter) bool {
	for _, f := range filters {
		if matches(row, f) {
			return true
		}
	}
	return false
}

func matches(row Row, f backend.Filter) bool {
	value, ok := row[f.Column]
	if !ok {
		return false
	}
	switch f.Op {
	case backend.OpEq:
		return valuesEqual(value, f.Value)
	case backend.OpNeq:
		return !valuesEqual(value, f.Value)
	case backend.OpGte:
		a, b, ok := numericPair(value, f.Value)
		return ok && a >= b
	case backend.OpLte:
		a, b, ok := numericPair(value, f.Value)
		return ok && a <= b
	case backend.OpIn:
		items, _ := f.Value.([]any)
		for _, item := range items {
			if valuesEqual(value, item) {
				return true
			}
		}
		return false
	case backend.OpContains:
		return strings.Contains(
			strings.ToLower(fmt.Sprint(value)),
			strings.ToLower(fmt.Sprint(f.Value)),
		)
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	if x, y, ok := numericPair(a, b); ok {
		return x == y
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func numericPair(a, b any) (float64, float64, bool) {
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	return x, y, okA && okB
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		return 0, false
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func sortRows(rows []Row, orders []backend.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			a, b := rows[i][o.Column], rows[j][o.Column]
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b any) int {
	if x, y, ok := numericPair(a, b); ok {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	// Bools sort false before true so descending puts true first.
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ab == bb:
			return 0
		case bb:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
