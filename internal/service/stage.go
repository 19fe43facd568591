package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/price-search/internal/domain"
)

type stage string

const (
	stageCache     stage = "cache"
	stageLinks     stage = "links"
	stageFetch     stage = "fetch"
	stageSummarize stage = "summarize"
	stageFilter    stage = "filter"
	stageImages    stage = "images"
)

type policy int

const (
	// прервать весь запрос
	policyAbort policy = iota
	// залогировать, подставить заглушку и продолжить
	policyPlaceholder
	// залогировать и выкинуть элемент
	policyDrop
	// залогировать и продолжить с пустым значением
	policyEmpty
)

// stagePolicies - что делаем с ошибкой на каждой стадии.
// Дедлайн на links и summarize всегда прерывает запрос с ErrRequestTimeout,
// отмена контекста прерывает запрос на любой стадии.
var stagePolicies = map[stage]policy{
	stageCache:     policyAbort,
	stageLinks:     policyEmpty,
	stageFetch:     policyPlaceholder,
	stageSummarize: policyAbort,
	stageFilter:    policyDrop,
	stageImages:    policyEmpty,
}

// deadlineAborts - стадии, для которых истёкший дедлайн важнее политики
var deadlineAborts = map[stage]bool{
	stageLinks:     true,
	stageSummarize: true,
}

// handleStageError применяет политику стадии: nil значит "продолжаем".
func (s *SearchService) handleStageError(st stage, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}

	if deadlineAborts[st] && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s stage: %v", domain.ErrRequestTimeout, st, err)
	}
	// отменённый запрос не продолжаем ни на одной стадии, иначе наружу уйдёт пустой результат
	if errors.Is(err, context.Canceled) {
		return err
	}

	fields = append(fields, zap.String("stage", string(st)), zap.Error(err))

	switch stagePolicies[st] {
	case policyPlaceholder:
		s.logger.Warn("stage failed, using placeholder", fields...)
		return nil
	case policyDrop:
		s.logger.Warn("stage failed, dropping item", fields...)
		return nil
	case policyEmpty:
		s.logger.Warn("stage failed, continuing with empty value", fields...)
		return nil
	default:
		return err
	}
}

// runOrdered прогоняет fn по items не более чем в limit горутин.
// Результат i-го элемента лежит в out[i], так что порядок входа сохраняется
// при любом limit. Первая ошибка отменяет остальных.
func runOrdered[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
