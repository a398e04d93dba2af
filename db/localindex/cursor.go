package localindex

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/db/kvdb"
)

// cursor pages lazily through the index. Each NextRows call runs one bounded
// search starting at the cursor position.
type cursor struct {
	index   *Index
	query   query.Query
	sortBy  []string
	whereID uint32

	mu         sync.Mutex
	position   int64
	nextHandle indexdb.RowHandle
	rows       map[indexdb.RowHandle]string
	closed     bool
}

func newCursor(index *Index, q query.Query, sortBy []string, whereID uint32) *cursor {
	return &cursor{
		index:   index,
		query:   q,
		sortBy:  sortBy,
		whereID: whereID,
		rows:    make(map[indexdb.RowHandle]string),
	}
}

func (c *cursor) Rows() (indexdb.RowSource, bool) {
	return c, true
}

func (c *cursor) Property(id indexdb.PropertyID) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, indexdb.ErrClosed
	}
	if id != indexdb.PropWhereID {
		return nil, fmt.Errorf("%w: %d", indexdb.ErrPropertyNotFound, id)
	}
	return c.whereID, nil
}

func (c *cursor) NextRows(offset int64, limit int64) ([]indexdb.RowHandle, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid row window offset=%d limit=%d", offset, limit)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, indexdb.ErrClosed
	}
	if limit == 0 {
		return nil, nil
	}

	from := c.position + offset
	searchRequest := bleve.NewSearchRequestOptions(c.query, int(limit), int(from), false)
	if len(c.sortBy) > 0 {
		searchRequest.SortBy(c.sortBy)
	}

	searchResult, err := c.index.index.Search(searchRequest)
	if err != nil {
		c.index.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	handles := make([]indexdb.RowHandle, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		c.nextHandle++
		c.rows[c.nextHandle] = hit.ID
		handles = append(handles, c.nextHandle)
	}
	c.position = from + int64(len(searchResult.Hits))

	return handles, nil
}

func (c *cursor) ReleaseRows(rows []indexdb.RowHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var unknown int
	for _, row := range rows {
		if _, ok := c.rows[row]; !ok {
			unknown++
			continue
		}
		delete(c.rows, row)
	}
	if unknown > 0 {
		return fmt.Errorf("%w: %d of %d rows", indexdb.ErrUnknownRow, unknown, len(rows))
	}
	return nil
}

func (c *cursor) RowProperties(row indexdb.RowHandle) (indexdb.PropertyView, error) {
	c.mu.Lock()
	docID, ok := c.rows[row]
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, indexdb.ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", indexdb.ErrUnknownRow, row)
	}

	encoded, err := c.index.props.Get(kvdb.PropertiesBucket, docID)
	if err != nil {
		return nil, fmt.Errorf("could not load properties of %s: %w", docID, err)
	}

	view := propertyView{}
	if err := json.Unmarshal([]byte(encoded), &view); err != nil {
		return nil, fmt.Errorf("could not decode properties of %s: %w", docID, err)
	}
	return view, nil
}

func (c *cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return indexdb.ErrClosed
	}
	c.closed = true
	c.rows = nil
	return nil
}

type propertyView map[string]any

func (v propertyView) Value(key string) (any, bool) {
	value, ok := v[key]
	return value, ok
}

func (v propertyView) Close() error {
	return nil
}
