package indexdb

import (
	"errors"
	"fmt"
)

// Dialect identifies the query language of a command text.
type Dialect string

const DialectDefault Dialect = "C8B521FB-5CF3-11CE-ADE5-00AA0044773D"

type PropertyID uint32

// PropWhereID holds the compiled where-shape id of an executed cursor as a uint32.
const PropWhereID PropertyID = 8

type RowHandle uint64

const (
	KeyItemURL         = "System.ItemUrl"
	KeyItemNameDisplay = "System.ItemNameDisplay"
	KeyPath            = "path"
	KeyEntryID         = "System.Search.EntryID"
	KeyKind            = "System.Kind"
	KeyKindText        = "System.KindText"
	KeyFileName        = "System.FileName"
	KeyDateModified    = "System.DateModified"
)

var (
	ErrNotInitialized     = errors.New("data source not initialized")
	ErrClosed             = errors.New("handle closed")
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrUnknownRow         = errors.New("unknown row handle")
)

// SyntaxError reports a command text the service could not parse.
type SyntaxError struct {
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid command text %q: %s", e.Text, e.Reason)
}
