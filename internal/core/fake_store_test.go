package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store. CopyIn parses the whole body before
// appending anything, which mirrors COPY's all-or-nothing commit.
type fakeStore struct {
	mu sync.Mutex

	nextID     int64
	records    map[int64][]string
	recordIDs  []int64
	reconciled [][]string

	acquired    int
	released    int
	schemaCalls int
	lastQuery   string

	failAcquire  error
	failSchema   error
	failCopyIn   error
	failGroup    error
	failCopyOut  error
	copyOutAfter bool // write the header before failing CopyOut
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64][]string)}
}

func (s *fakeStore) Acquire(ctx context.Context) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAcquire != nil {
		return nil, s.failAcquire
	}
	s.acquired++
	return &fakeConn{s: s}, nil
}

func (s *fakeStore) balanced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired == s.released
}

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recordIDs)
}

func (s *fakeStore) record(i int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[s.recordIDs[i]]
}

type fakeConn struct {
	s        *fakeStore
	released bool
}

func (c *fakeConn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.s.mu.Lock()
	c.s.released++
	c.s.mu.Unlock()
}

func (c *fakeConn) EnsureSchema(ctx context.Context) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.schemaCalls++
	return c.s.failSchema
}

func (c *fakeConn) CopyIn(ctx context.Context, table string, columns []string, body io.Reader) (int64, error) {
	if c.s.failCopyIn != nil {
		return 0, c.s.failCopyIn
	}

	r := csv.NewReader(body)
	r.FieldsPerRecord = len(columns)
	rows, err := r.ReadAll()
	if err != nil {
		return 0, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	switch table {
	case RecordsTable:
		for _, row := range rows {
			c.s.nextID++
			c.s.records[c.s.nextID] = row
			c.s.recordIDs = append(c.s.recordIDs, c.s.nextID)
		}
	case ReconciledTable:
		c.s.reconciled = append(c.s.reconciled, rows...)
	default:
		return 0, fmt.Errorf("relation %q does not exist", table)
	}
	return int64(len(rows)), nil
}

func (c *fakeConn) GroupBySource(ctx context.Context, src Source) ([]Group, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.failGroup != nil {
		return nil, c.s.failGroup
	}

	byOrder := make(map[string]*Group)
	for _, id := range c.s.recordIDs {
		row := c.s.records[id]
		if row[0] != string(src) {
			continue
		}
		g, ok := byOrder[row[1]]
		if !ok {
			g = &Group{OrderID: row[1]}
			byOrder[row[1]] = g
		}
		g.IDs = append(g.IDs, id)
		g.Total = g.Total.Add(decimal.RequireFromString(row[3]))
	}

	// map order on purpose: callers must not rely on storage ordering
	out := make([]Group, 0, len(byOrder))
	for _, g := range byOrder {
		sort.Slice(g.IDs, func(i, j int) bool { return g.IDs[i] < g.IDs[j] })
		out = append(out, *g)
	}
	return out, nil
}

func (c *fakeConn) CopyOut(ctx context.Context, w io.Writer, query string) (int64, error) {
	c.s.mu.Lock()
	c.s.lastQuery = query
	rows := append([][]string(nil), c.s.reconciled...)
	failErr, after := c.s.failCopyOut, c.s.copyOutAfter
	c.s.mu.Unlock()

	if failErr != nil && !after {
		return 0, failErr
	}

	if i := strings.Index(query, " LIMIT "); i >= 0 {
		rest := query[i+len(" LIMIT "):]
		n, err := strconv.Atoi(rest[:strings.IndexByte(rest, ')')])
		if err != nil {
			return 0, err
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return 0, err
	}
	cw.Flush()
	if failErr != nil {
		return 0, failErr
	}

	for _, r := range rows {
		if err := cw.Write([]string{r[0], r[6], r[3], r[4], r[5]}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return int64(len(rows)), cw.Error()
}

var errBoom = errors.New("boom")
