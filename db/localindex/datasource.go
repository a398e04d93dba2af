package localindex

import (
	"fmt"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/incsearch/db/indexdb"
)

type dataSource struct {
	index       *Index
	initialized atomic.Bool
}

func (d *dataSource) Initialize() error {
	if d.index.index == nil {
		return indexdb.ErrClosed
	}
	d.initialized.Store(true)
	return nil
}

func (d *dataSource) OpenSession() (indexdb.Session, error) {
	if !d.initialized.Load() {
		return nil, indexdb.ErrNotInitialized
	}
	return &session{index: d.index}, nil
}

func (d *dataSource) QueryHelper(catalog string) (indexdb.QueryHelper, error) {
	if catalog != d.index.catalog {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, catalog)
	}
	return &queryHelper{catalog: catalog}, nil
}

type session struct {
	index  *Index
	closed atomic.Bool
}

func (s *session) CreateCommand() (indexdb.Command, error) {
	if s.closed.Load() {
		return nil, indexdb.ErrClosed
	}
	return &command{index: s.index}, nil
}

func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return indexdb.ErrClosed
	}
	return nil
}

type command struct {
	index  *Index
	text   string
	closed atomic.Bool
}

func (c *command) SetText(dialect indexdb.Dialect, text string) error {
	if c.closed.Load() {
		return indexdb.ErrClosed
	}
	if dialect != indexdb.DialectDefault {
		return fmt.Errorf("%w: %s", indexdb.ErrUnsupportedDialect, dialect)
	}
	c.text = text
	return nil
}

func (c *command) Execute() (indexdb.Cursor, error) {
	if c.closed.Load() {
		return nil, indexdb.ErrClosed
	}

	p, err := parsePlan(c.text)
	if err != nil {
		c.index.logger.Warn("could not parse command text", "err", err.Error())
		return nil, err
	}
	if p.catalog != c.index.catalog {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, p.catalog)
	}

	whereID, where := c.index.resolveShape(p.reuseWhere, p.scope)

	conditions := []query.Query{where.query}
	for _, t := range p.terms {
		conditions = append(conditions, termQuery(t))
	}

	return newCursor(c.index, bleve.NewConjunctionQuery(conditions...), p.sortBy, whereID), nil
}

func (c *command) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return indexdb.ErrClosed
	}
	return nil
}

func termQuery(t term) query.Query {
	if t.prefix {
		prefixQuery := bleve.NewPrefixQuery(t.text)
		prefixQuery.SetField(t.field)
		return prefixQuery
	}
	matchQuery := bleve.NewMatchQuery(t.text)
	matchQuery.SetField(t.field)
	return matchQuery
}
