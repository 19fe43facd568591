package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

const homeMessage = "Deployed successfully nice job ✔️"

type Searcher interface {
	HandleSearch(ctx context.Context, text string, start int) ([]domain.EnrichedResult, error)
}

type Handler struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewHandler(searcher Searcher, logger *zap.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger}
}

// Search - GET /search?search_query=...&start=1
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var problems []fieldError
	if !params.Has("search_query") {
		problems = append(problems, fieldError{
			Loc:  []string{"query", "search_query"},
			Msg:  "Field required",
			Type: "missing",
		})
	}

	start := 1
	if raw := params.Get("start"); params.Has("start") {
		n, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fieldError{
				Loc:  []string{"query", "start"},
				Msg:  "Input should be a valid integer, unable to parse string as an integer",
				Type: "int_parsing",
			})
		} else {
			start = n
		}
	}

	if len(problems) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, problems)
		return
	}

	results, err := h.searcher.HandleSearch(r.Context(), params.Get("search_query"), start)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Message": homeMessage})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("search timed out", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeDetail(w, http.StatusRequestTimeout, timeoutDetail)
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrQueryTooLong), errors.Is(err, domain.ErrInvalidStart):
		writeDetail(w, http.StatusUnprocessableEntity, []fieldError{{
			Loc:  []string{"query"},
			Msg:  err.Error(),
			Type: "value_error",
		}})
	default:
		h.logger.Error("search failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
