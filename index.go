package main

import (
	"encoding/json"
)

// IndexLoader fetches and parses the JSON post index.
type IndexLoader struct {
	fetcher *ContentFetcher
}

// NewIndexLoader creates a loader reading through the given fetcher.
func NewIndexLoader(fetcher *ContentFetcher) *IndexLoader {
	return &IndexLoader{fetcher: fetcher}
}

// Load fetches the index at the given site-root-relative path and returns its
// raw records. Producers disagree on the outer shape, so both a bare array
// and an object wrapping one under "posts" or "items" are accepted. A
// transport failure is an IndexLoadError; anything else is an
// IndexFormatError. No retry, no fallback source.
func (l *IndexLoader) Load(indexPath string) ([]RawRecord, error) {
	location := l.fetcher.Location(indexPath)

	data, err := l.fetcher.Fetch(indexPath)
	if err != nil {
		fe, ok := err.(*FetchError)
		if !ok {
			return nil, &IndexLoadError{Location: location, Err: err}
		}
		return nil, &IndexLoadError{Location: fe.Location, StatusCode: fe.StatusCode, Err: fe.Err}
	}

	var records []RawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Posts []RawRecord `json:"posts"`
		Items []RawRecord `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, &IndexFormatError{Location: location, Err: err}
	}
	if wrapped.Posts != nil {
		return wrapped.Posts, nil
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return nil, &IndexFormatError{Location: location}
}
