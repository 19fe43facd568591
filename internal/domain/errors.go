package domain

import "errors"

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrQueryTooLong = errors.New("query too long")
	ErrInvalidStart = errors.New("start must be a positive integer")
)

// ошибки стадий пайплайна; политика обработки каждой описана в service.stagePolicies
var (
	ErrRequestTimeout   = errors.New("request timeout")
	ErrSearchProvider   = errors.New("search provider error")
	ErrFetch            = errors.New("page fetch failed")
	ErrSummarization    = errors.New("summarization failed")
	ErrFilterItem       = errors.New("filter item error")
	ErrImageLookup      = errors.New("image lookup failed")
	ErrCacheUnavailable = errors.New("cache unavailable")
)
