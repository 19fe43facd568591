package domain

import (
	"strings"
)

const MaxQueryLength = 1000

type SearchQuery struct {
	Text  string
	Start int
}

func NewSearchQuery(text string, start int) SearchQuery {
	q := SearchQuery{Text: text, Start: start}
	q.Sanitize()
	return q
}

// Validate намеренно строже пайплайна, который принял бы любую строку:
// пустой запрос и запрос длиннее MaxQueryLength байт отклоняются до поиска (422).
// Start должен быть >= 1.
func (q *SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}

	if len(q.Text) > MaxQueryLength {
		return ErrQueryTooLong
	}

	if q.Start < 1 {
		return ErrInvalidStart
	}

	return nil
}

// Sanitize убирает пробелы по краям; регистр не трогаем, он уходит в поиск и в промпт
func (q *SearchQuery) Sanitize() {
	q.Text = strings.TrimSpace(q.Text)
	if q.Start == 0 {
		q.Start = 1
	}
}

// CacheKey - ключ кеша: запрос в верхнем регистре без пробелов по краям.
// start в ключ не входит.
func (q SearchQuery) CacheKey() string {
	return NormalizeQuery(q.Text)
}

func NormalizeQuery(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}
