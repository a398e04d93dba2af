// Package localindex is a content-indexing service backed by a bleve index and
// a bbolt property store. It speaks the indexdb cursor protocol so the search
// engine can run against it wherever the platform service is unavailable.
package localindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meghashyamc/incsearch/config"
	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/db/kvdb"
	"github.com/meghashyamc/incsearch/logger"
)

const indexingBatchSize = 100

const (
	indexFieldURL     = "url"
	indexFieldName    = "name"
	indexFieldPath    = "path"
	indexFieldKind    = "kind"
	indexFieldModTime = "mod_time"
)

var ErrUnknownCatalog = errors.New("unknown catalog")

type Index struct {
	logger  logger.Logger
	catalog string
	index   bleve.Index
	props   kvdb.DB

	shapes      *lru.Cache[uint32, *shape]
	nextWhereID atomic.Uint32
	compiled    atomic.Uint64
	reused      atomic.Uint64
}

// Stats counts where shapes compiled from scratch and reused via ReuseWhere.
type Stats struct {
	CompiledShapes uint64
	ReusedShapes   uint64
}

func New(logger logger.Logger, cfg *config.Config, props kvdb.DB) (*Index, error) {
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	index, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "path", indexPath, "err", err.Error())
			return nil, err
		}
	}

	shapes, err := lru.New[uint32, *shape](max(1, cfg.GetShapeCacheSize()))
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("could not create shape cache: %w", err)
	}

	return &Index{
		logger:  logger,
		catalog: cfg.GetCatalog(),
		index:   index,
		props:   props,
		shapes:  shapes,
	}, nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// URL and path are matched by prefix, so they stay single terms
	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldURL, urlFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldPath, pathFieldMapping)

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldName, nameFieldMapping)

	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldKind, kindFieldMapping)

	modTimeFieldMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt(indexFieldModTime, modTimeFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Add indexes documents and stores their property sets.
func (x *Index) Add(documents []Document) error {

	batch := x.index.NewBatch()
	properties := make(map[string]string, len(documents))

	for i, doc := range documents {
		if err := batch.Index(doc.ID, doc); err != nil {
			x.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			return err
		}

		encoded, err := json.Marshal(doc.properties())
		if err != nil {
			x.logger.Error("could not encode document properties", "id", doc.ID, "err", err.Error())
			return fmt.Errorf("could not encode properties of %s: %w", doc.ID, err)
		}
		properties[doc.ID] = string(encoded)

		if (i+1)%indexingBatchSize == 0 {
			if err := x.flush(batch, properties); err != nil {
				return err
			}
			batch = x.index.NewBatch()
			properties = make(map[string]string, indexingBatchSize)
		}
	}

	if batch.Size() > 0 {
		return x.flush(batch, properties)
	}

	return nil
}

// Properties are written first so that no searchable row lacks a property set.
func (x *Index) flush(batch *bleve.Batch, properties map[string]string) error {
	if err := x.props.SetBatch(kvdb.PropertiesBucket, properties); err != nil {
		x.logger.Error("could not store document properties", "err", err.Error())
		return err
	}
	if err := x.index.Batch(batch); err != nil {
		x.logger.Error("could not index documents", "err", err.Error())
		return err
	}
	return nil
}

func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

func (x *Index) Stats() Stats {
	return Stats{
		CompiledShapes: x.compiled.Load(),
		ReusedShapes:   x.reused.Load(),
	}
}

// Open implements indexdb.Driver.
func (x *Index) Open() (indexdb.DataSource, error) {
	if x.index == nil {
		return nil, indexdb.ErrClosed
	}
	return &dataSource{index: x}, nil
}

func (x *Index) Close() error {

	if x.index != nil {
		if err := x.index.Close(); err != nil {
			x.logger.Error("could not close search index", "err", err.Error())
			return err
		}
		x.index = nil
	}
	return nil
}

type Document struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Kind     string    `json:"kind"`
	KindText string    `json:"kind_text"`
	ModTime  time.Time `json:"mod_time"`
}

func (d Document) properties() map[string]any {
	return map[string]any{
		indexdb.KeyItemURL:         d.URL,
		indexdb.KeyItemNameDisplay: d.Name,
		indexdb.KeyFileName:        d.Name,
		indexdb.KeyPath:            d.Path,
		indexdb.KeyEntryID:         d.ID,
		indexdb.KeyKind:            d.Kind,
		indexdb.KeyKindText:        d.KindText,
		indexdb.KeyDateModified:    d.ModTime.UTC().Format(time.RFC3339),
	}
}
