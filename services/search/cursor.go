package search

import (
	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

type FetchOutcome struct {
	Records []ResultRecord
	More    bool
}

// fetchRows pulls up to limit rows, skipping offset rows past the cursor's
// current position. Rows that cannot be materialized are left out of the batch.
func fetchRows(logger logger.Logger, rows indexdb.RowSource, offset int64, limit int64) (FetchOutcome, error) {
	handles, err := rows.NextRows(offset, limit)
	if err != nil {
		logger.Error("could not enumerate rows", "offset", offset, "limit", limit, "err", err.Error())
		return FetchOutcome{}, &FetchError{Offset: offset, Limit: limit, Err: err}
	}
	if len(handles) == 0 {
		return FetchOutcome{}, nil
	}
	defer func() {
		if err := rows.ReleaseRows(handles); err != nil {
			logger.Warn("could not release rows", "count", len(handles), "err", err.Error())
		}
	}()

	records := make([]ResultRecord, 0, len(handles))
	for _, handle := range handles {
		record, err := fetchRecord(rows, handle)
		if err != nil {
			logger.Warn("skipping row", "row", handle, "err", err.Error())
			continue
		}
		records = append(records, record)
	}

	return FetchOutcome{
		Records: records,
		More:    int64(len(handles)) >= limit,
	}, nil
}

func fetchRecord(rows indexdb.RowSource, handle indexdb.RowHandle) (ResultRecord, error) {
	view, err := rows.RowProperties(handle)
	if err != nil {
		return ResultRecord{}, err
	}
	viewHandle := own(view)
	defer viewHandle.Release()

	return materialize(view)
}
