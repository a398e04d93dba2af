package search

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

var errFake = errors.New("fake failure")

var testOptions = Options{
	Catalog:           "SystemIndex",
	Scope:             "file:",
	SelectColumns:     "System.ItemUrl, System.ItemNameDisplay, path",
	ContentProperties: indexdb.KeyFileName,
	SortOrder:         "System.DateModified DESC",
	DebounceDelay:     30 * time.Millisecond,
	Workers:           2,
}

func newTestLogger() logger.Logger {
	return logger.NewWithWriter(os.Stderr, slog.LevelDebug)
}

type fakeRow map[string]any

// fakeIndex is an in-memory index service. Every executed command gets a where
// id equal to its execution count, and each query's rows come from rowsFor.
type fakeIndex struct {
	mu sync.Mutex

	openErr       error
	initErr       error
	helperErr     error
	executeErr    error
	nilCursor     bool
	whereIDErr    error
	enumerateErr  error
	noRowAccess   int
	executeDelay  time.Duration
	rowsFor       func(query string) []fakeRow
	executed      []string
	opens         int
	initializes   int
	helpers       int
	configures    int
	openSessions  atomic.Int64
	openCommands  atomic.Int64
	openCursors   atomic.Int64
	heldRows      atomic.Int64
	openViews     atomic.Int64
	releasedBatch atomic.Int64
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		rowsFor: func(query string) []fakeRow { return nil },
	}
}

func (f *fakeIndex) set(change func(f *fakeIndex)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	change(f)
}

func (f *fakeIndex) executedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func (f *fakeIndex) Open() (indexdb.DataSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeSource{index: f}, nil
}

type fakeSource struct {
	index *fakeIndex
}

func (s *fakeSource) Initialize() error {
	s.index.mu.Lock()
	defer s.index.mu.Unlock()
	s.index.initializes++
	return s.index.initErr
}

func (s *fakeSource) OpenSession() (indexdb.Session, error) {
	s.index.openSessions.Add(1)
	return &fakeSession{index: s.index}, nil
}

func (s *fakeSource) QueryHelper(catalog string) (indexdb.QueryHelper, error) {
	s.index.mu.Lock()
	defer s.index.mu.Unlock()
	s.index.helpers++
	if s.index.helperErr != nil {
		return nil, s.index.helperErr
	}
	return &fakeHelper{index: s.index, catalog: catalog}, nil
}

type fakeSession struct {
	index *fakeIndex
}

func (s *fakeSession) CreateCommand() (indexdb.Command, error) {
	s.index.openCommands.Add(1)
	return &fakeCommand{index: s.index}, nil
}

func (s *fakeSession) Close() error {
	s.index.openSessions.Add(-1)
	return nil
}

type fakeCommand struct {
	index *fakeIndex
	text  string
}

func (c *fakeCommand) SetText(dialect indexdb.Dialect, text string) error {
	if dialect != indexdb.DialectDefault {
		return indexdb.ErrUnsupportedDialect
	}
	c.text = text
	return nil
}

func (c *fakeCommand) Execute() (indexdb.Cursor, error) {
	f := c.index
	f.mu.Lock()
	delay := f.executeDelay
	f.mu.Unlock()
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, c.text)
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	if f.nilCursor {
		return nil, nil
	}

	rowAccess := true
	if f.noRowAccess > 0 {
		f.noRowAccess--
		rowAccess = false
	}
	f.openCursors.Add(1)
	return &fakeCursor{
		index:     f,
		whereID:   uint32(len(f.executed)),
		rows:      f.rowsFor(c.text),
		rowAccess: rowAccess,
	}, nil
}

func (c *fakeCommand) Close() error {
	c.index.openCommands.Add(-1)
	return nil
}

type fakeCursor struct {
	index     *fakeIndex
	whereID   uint32
	rows      []fakeRow
	rowAccess bool
	position  int64
	closed    bool
}

func (c *fakeCursor) Rows() (indexdb.RowSource, bool) {
	if !c.rowAccess {
		return nil, false
	}
	return c, true
}

func (c *fakeCursor) Property(id indexdb.PropertyID) (any, error) {
	if id != indexdb.PropWhereID {
		return nil, indexdb.ErrPropertyNotFound
	}
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	if c.index.whereIDErr != nil {
		return nil, c.index.whereIDErr
	}
	return c.whereID, nil
}

func (c *fakeCursor) Close() error {
	if c.closed {
		return indexdb.ErrClosed
	}
	c.closed = true
	c.index.openCursors.Add(-1)
	return nil
}

func (c *fakeCursor) NextRows(offset int64, limit int64) ([]indexdb.RowHandle, error) {
	c.index.mu.Lock()
	err := c.index.enumerateErr
	c.index.mu.Unlock()
	if err != nil {
		return nil, err
	}

	start := min(c.position+offset, int64(len(c.rows)))
	end := min(start+limit, int64(len(c.rows)))
	var handles []indexdb.RowHandle
	for i := start; i < end; i++ {
		handles = append(handles, indexdb.RowHandle(i))
	}
	c.position = end
	c.index.heldRows.Add(int64(len(handles)))
	return handles, nil
}

func (c *fakeCursor) ReleaseRows(rows []indexdb.RowHandle) error {
	c.index.heldRows.Add(-int64(len(rows)))
	c.index.releasedBatch.Add(1)
	return nil
}

func (c *fakeCursor) RowProperties(row indexdb.RowHandle) (indexdb.PropertyView, error) {
	if int(row) >= len(c.rows) {
		return nil, indexdb.ErrUnknownRow
	}
	c.index.openViews.Add(1)
	return &fakeView{index: c.index, row: c.rows[row]}, nil
}

type fakeView struct {
	index *fakeIndex
	row   fakeRow
}

func (v *fakeView) Value(key string) (any, bool) {
	value, ok := v.row[key]
	return value, ok
}

func (v *fakeView) Close() error {
	v.index.openViews.Add(-1)
	return nil
}

type fakeHelper struct {
	index       *fakeIndex
	catalog     string
	restriction string
}

func (h *fakeHelper) SetOutputColumns(columns string) error {
	h.index.mu.Lock()
	defer h.index.mu.Unlock()
	h.index.configures++
	return nil
}

func (h *fakeHelper) SetContentProperties(properties string) error { return nil }

func (h *fakeHelper) SetSortOrder(order string) error { return nil }

func (h *fakeHelper) SetWhereRestriction(restriction string) error {
	h.restriction = restriction
	return nil
}

func (h *fakeHelper) Compile(userText string) (string, error) {
	return fmt.Sprintf("QUERY[%s] %s", userText, h.restriction), nil
}

// textOf extracts the user text from a query compiled by fakeHelper.
func textOf(query string) string {
	start := strings.Index(query, "QUERY[")
	end := strings.Index(query, "]")
	if start < 0 || end < start {
		return ""
	}
	return query[start+len("QUERY[") : end]
}

func namedRows(names ...string) []fakeRow {
	rows := make([]fakeRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, fakeRow{
			indexdb.KeyItemNameDisplay: name,
			indexdb.KeyItemURL:         "file:///" + name,
			indexdb.KeyKind:            []any{"document"},
		})
	}
	return rows
}

func newTestEngine(t *testing.T, index *fakeIndex) *Engine {
	t.Helper()
	engine := NewEngine(newTestLogger(), index, testOptions)
	t.Cleanup(func() { engine.Close() })
	return engine
}
