package search

import (
	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

type QueryExecutor struct {
	logger      logger.Logger
	connections *ConnectionProvider
}

func NewQueryExecutor(logger logger.Logger, connections *ConnectionProvider) *QueryExecutor {
	return &QueryExecutor{
		logger:      logger,
		connections: connections,
	}
}

// Execute runs query on a fresh protocol session. The session and command are
// released before returning; the caller owns the returned cursor.
func (e *QueryExecutor) Execute(query string) (*Handle[indexdb.Cursor], error) {
	source, err := e.connections.Connection()
	if err != nil {
		return nil, &ExecError{Op: "connect", Err: err}
	}

	session, err := source.OpenSession()
	if err != nil {
		e.logger.Error("could not open session", "err", err.Error())
		return nil, &ExecError{Op: "open session", Err: err}
	}
	sessionHandle := own(session)
	defer e.release("session", sessionHandle)

	command, err := session.CreateCommand()
	if err != nil {
		e.logger.Error("could not create command", "err", err.Error())
		return nil, &ExecError{Op: "create command", Err: err}
	}
	commandHandle := own(command)
	defer e.release("command", commandHandle)

	if err := command.SetText(indexdb.DialectDefault, query); err != nil {
		e.logger.Error("could not set command text", "err", err.Error())
		return nil, &ExecError{Op: "set command text", Err: err}
	}

	cursor, err := command.Execute()
	if err != nil {
		e.logger.Error("could not execute command", "err", err.Error())
		return nil, &ExecError{Op: "execute command", Err: err}
	}
	if cursor == nil {
		return nil, &ExecError{Op: "execute command", Err: ErrNoCursor}
	}

	return own(cursor), nil
}

func (e *QueryExecutor) release(name string, handle interface{ Release() error }) {
	if err := handle.Release(); err != nil {
		e.logger.Warn("could not release "+name, "err", err.Error())
	}
}
