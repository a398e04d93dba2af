// Package indexdb describes the cursor protocol spoken by a content-indexing
// service. Every handle returned by the protocol is owned by the caller and
// must be closed (or, for rows, released) exactly once.
package indexdb

// Driver opens data sources. An implementation is usually one per process.
type Driver interface {
	Open() (DataSource, error)
}

// DataSource is a connection to the indexing service.
type DataSource interface {
	// Initialize performs the service handshake. It must succeed before
	// sessions can be opened.
	Initialize() error
	OpenSession() (Session, error)
	// QueryHelper returns the query planner of the named catalog.
	QueryHelper(catalog string) (QueryHelper, error)
}

type Session interface {
	CreateCommand() (Command, error)
	Close() error
}

type Command interface {
	SetText(dialect Dialect, text string) error
	Execute() (Cursor, error)
	Close() error
}

// Cursor is a result set produced by a command.
type Cursor interface {
	// Rows reports whether the cursor supports row-handle access. A cursor
	// that does not must be re-executed before rows can be fetched.
	Rows() (RowSource, bool)
	// Property reads a cursor-level property, such as PropWhereID.
	Property(id PropertyID) (any, error)
	Close() error
}

// RowSource enumerates rows of a live cursor.
type RowSource interface {
	// NextRows skips offset rows past the current position and returns up
	// to limit row handles. No handles and no error means no more rows.
	NextRows(offset int64, limit int64) ([]RowHandle, error)
	ReleaseRows(rows []RowHandle) error
	RowProperties(row RowHandle) (PropertyView, error)
}

type PropertyView interface {
	Value(key string) (any, bool)
	Close() error
}

// QueryHelper compiles free text into the service's query language.
type QueryHelper interface {
	SetOutputColumns(columns string) error
	SetContentProperties(properties string) error
	SetSortOrder(order string) error
	SetWhereRestriction(restriction string) error
	Compile(userText string) (string, error)
}
