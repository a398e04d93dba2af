package search

import (
	"fmt"
	"sync"

	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

// QueryStringBuilder turns user text into the service's query language. The
// helper is obtained and configured once. Every query then only swaps the
// where restriction, so the builder serializes restriction and compile.
type QueryStringBuilder struct {
	logger      logger.Logger
	connections *ConnectionProvider
	options     Options

	mu     sync.Mutex
	helper indexdb.QueryHelper
}

func NewQueryStringBuilder(logger logger.Logger, connections *ConnectionProvider, options Options) *QueryStringBuilder {
	return &QueryStringBuilder{
		logger:      logger,
		connections: connections,
		options:     options,
	}
}

// PrimingQuery is the fixed query run once per session to warm the shape cache.
func (b *QueryStringBuilder) PrimingQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE (%s) ORDER BY %s",
		b.options.SelectColumns, b.options.Catalog, b.scopeCondition(), b.options.SortOrder)
}

func (b *QueryStringBuilder) GenerateQuery(userText string, reuseToken uint32) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	helper, err := b.queryHelper()
	if err != nil {
		return "", err
	}

	restriction := fmt.Sprintf("AND %s AND ReuseWhere(%d)", b.scopeCondition(), reuseToken)
	if err := helper.SetWhereRestriction(restriction); err != nil {
		b.logger.Error("could not set where restriction", "err", err.Error())
		return "", &QueryBuildError{Op: "set where restriction", Err: err}
	}

	query, err := helper.Compile(userText)
	if err != nil {
		b.logger.Error("could not compile user query", "err", err.Error())
		return "", &QueryBuildError{Op: "compile", Err: err}
	}

	return query, nil
}

// queryHelper must be called with b.mu held.
func (b *QueryStringBuilder) queryHelper() (indexdb.QueryHelper, error) {
	if b.helper != nil {
		return b.helper, nil
	}

	source, err := b.connections.Connection()
	if err != nil {
		return nil, &QueryBuildError{Op: "connect", Err: err}
	}

	helper, err := source.QueryHelper(b.options.Catalog)
	if err != nil {
		b.logger.Error("could not get query helper", "catalog", b.options.Catalog, "err", err.Error())
		return nil, &QueryBuildError{Op: "get query helper", Err: err}
	}
	if helper == nil {
		return nil, &QueryBuildError{Op: "get query helper", Err: fmt.Errorf("no helper for catalog %s", b.options.Catalog)}
	}

	if err := helper.SetOutputColumns(b.options.SelectColumns); err != nil {
		return nil, &QueryBuildError{Op: "set output columns", Err: err}
	}
	if err := helper.SetContentProperties(b.options.ContentProperties); err != nil {
		return nil, &QueryBuildError{Op: "set content properties", Err: err}
	}
	if err := helper.SetSortOrder(b.options.SortOrder); err != nil {
		return nil, &QueryBuildError{Op: "set sort order", Err: err}
	}

	b.helper = helper
	return helper, nil
}

func (b *QueryStringBuilder) scopeCondition() string {
	return fmt.Sprintf("SCOPE='%s'", b.options.Scope)
}
