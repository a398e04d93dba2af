package search

import (
	"sync"

	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

// ConnectionProvider opens the data source on first use and memoizes it.
// Only a successfully initialized data source is kept.
type ConnectionProvider struct {
	logger logger.Logger
	driver indexdb.Driver

	mu     sync.Mutex
	source indexdb.DataSource
}

func NewConnectionProvider(logger logger.Logger, driver indexdb.Driver) *ConnectionProvider {
	return &ConnectionProvider{
		logger: logger,
		driver: driver,
	}
}

func (p *ConnectionProvider) Connection() (indexdb.DataSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil {
		return p.source, nil
	}

	source, err := p.driver.Open()
	if err != nil {
		p.logger.Error("could not open index data source", "err", err.Error())
		return nil, &ConnectionError{Op: "open data source", Err: err}
	}
	if source == nil {
		p.logger.Error("index driver returned no data source")
		return nil, &ConnectionError{Op: "open data source", Err: ErrConnection}
	}

	if err := source.Initialize(); err != nil {
		p.logger.Error("could not initialize index data source", "err", err.Error())
		return nil, &ConnectionError{Op: "initialize data source", Err: err}
	}

	p.logger.Info("connected to index data source")
	p.source = source
	return source, nil
}
