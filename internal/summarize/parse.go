package summarize

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kitbuilder587/price-search/internal/domain"
)

var errNotObject = errors.New("model response is not a json object")

// parseEntries разбирает ответ модели в порядке ключей документа.
// null -> nil price, строка как есть, остальное сырым json.
func parseEntries(raw string) ([]domain.SummaryEntry, error) {
	body := stripFences(raw)
	if !gjson.Valid(body) {
		return nil, errNotObject
	}

	res := gjson.Parse(body)
	if !res.IsObject() {
		return nil, errNotObject
	}

	var entries []domain.SummaryEntry
	res.ForEach(func(key, value gjson.Result) bool {
		var price *string
		switch value.Type {
		case gjson.Null:
		case gjson.String:
			price = domain.StringPtr(value.Str)
		default:
			price = domain.StringPtr(value.Raw)
		}
		entries = append(entries, domain.NewSummaryEntry(key.String(), price))
		return true
	})
	return entries, nil
}

// stripFences убирает ```json ... ``` вокруг ответа, если модель их добавила
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
