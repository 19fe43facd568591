package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

func hasPrice(e domain.SummaryEntry) bool {
	return e.Price != nil
}

// FilterResults оставляет записи с ценой, порядок сохраняется, дубли не схлопываются.
func FilterResults(entries []domain.SummaryEntry, logger *zap.Logger) []domain.SummaryEntry {
	return filterWith(entries, hasPrice, func(i int, e domain.SummaryEntry, err error) {
		logger.Warn("error filtering result",
			zap.Int("index", i),
			zap.String("name", e.Name),
			zap.Error(err),
		)
	})
}

// filterWith: keep, упавший с паникой на элементе, превращается в ErrFilterItem и отдаётся в onErr.
func filterWith(entries []domain.SummaryEntry, keep func(domain.SummaryEntry) bool, onErr func(i int, e domain.SummaryEntry, err error)) []domain.SummaryEntry {
	filtered := make([]domain.SummaryEntry, 0, len(entries))
	for i, e := range entries {
		ok, err := evalEntry(e, keep)
		if err != nil {
			onErr(i, e, err)
			continue
		}
		if ok {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func evalEntry(e domain.SummaryEntry, keep func(domain.SummaryEntry) bool) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrFilterItem, r)
		}
	}()
	return keep(e), nil
}
