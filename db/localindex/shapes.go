package localindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// shape is a compiled where restriction. Shapes are registered under a where
// id so later commands can name them with ReuseWhere.
type shape struct {
	scope string
	query query.Query
}

func compileShape(scope string) *shape {
	if scope == "" {
		return &shape{query: bleve.NewMatchAllQuery()}
	}
	scopeQuery := bleve.NewPrefixQuery(scope)
	scopeQuery.SetField(indexFieldURL)
	return &shape{scope: scope, query: scopeQuery}
}

// resolveShape returns the shape registered under reuseWhere when it was
// compiled for the same scope. Otherwise it compiles and registers a new one.
// Where ids are never zero.
func (x *Index) resolveShape(reuseWhere uint32, scope string) (uint32, *shape) {
	if reuseWhere != 0 {
		if cached, ok := x.shapes.Get(reuseWhere); ok && cached.scope == scope {
			x.reused.Add(1)
			return reuseWhere, cached
		}
	}

	whereID := x.nextWhereID.Add(1)
	if whereID == 0 {
		whereID = x.nextWhereID.Add(1)
	}
	compiled := compileShape(scope)
	x.shapes.Add(whereID, compiled)
	x.compiled.Add(1)

	x.logger.Debug("compiled where shape", "where_id", whereID, "scope", scope)
	return whereID, compiled
}
