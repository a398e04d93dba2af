package search

import (
	"errors"
	"fmt"

	"github.com/meghashyamc/incsearch/db/indexdb"
)

const kindFolder = "folder"

var errMissingProperty = errors.New("missing required property")

// ResultRecord is one materialized row of a query's result set.
type ResultRecord struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Path        string `json:"path,omitempty"`
	EntryID     string `json:"entry_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	KindText    string `json:"kind_text,omitempty"`
	IsFolder    bool   `json:"is_folder"`
}

func materialize(view indexdb.PropertyView) (ResultRecord, error) {
	displayName, err := requiredString(view, indexdb.KeyItemNameDisplay)
	if err != nil {
		return ResultRecord{}, err
	}
	itemURL, err := requiredString(view, indexdb.KeyItemURL)
	if err != nil {
		return ResultRecord{}, err
	}

	record := ResultRecord{
		DisplayName: displayName,
		URL:         itemURL,
		Path:        optionalString(view, indexdb.KeyPath),
		EntryID:     optionalString(view, indexdb.KeyEntryID),
		Kind:        optionalString(view, indexdb.KeyKind),
		KindText:    optionalString(view, indexdb.KeyKindText),
	}
	record.IsFolder = record.Kind == kindFolder
	return record, nil
}

func requiredString(view indexdb.PropertyView, key string) (string, error) {
	value, ok := view.Value(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissingProperty, key)
	}
	s, ok := firstString(value)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s", errMissingProperty, key)
	}
	return s, nil
}

func optionalString(view indexdb.PropertyView, key string) string {
	value, ok := view.Value(key)
	if !ok {
		return ""
	}
	s, _ := firstString(value)
	return s
}

// firstString accepts single and multi-valued properties, taking the first
// value of the latter.
func firstString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return v[0], true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		s, ok := v[0].(string)
		return s, ok
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}
