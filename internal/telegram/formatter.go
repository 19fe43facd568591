package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/price-search/internal/domain"
)

// FormatResults - ответ на поиск: товар, цена и ссылки на картинки.
func FormatResults(query string, results []domain.EnrichedResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("По запросу <b>%s</b> ничего не найдено.", html.EscapeString(query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Результаты по запросу:</b> %s\n\n", html.EscapeString(query))

	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s - <b>%s</b>\n", i+1, html.EscapeString(r.Name), html.EscapeString(r.Price))
		if len(r.ImageURLs) > 0 {
			links := make([]string, len(r.ImageURLs))
			for j, u := range r.ImageURLs {
				links[j] = fmt.Sprintf("<a href=\"%s\">%d</a>", html.EscapeString(u), j+1)
			}
			fmt.Fprintf(&sb, "   фото: %s\n", strings.Join(links, " "))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Всего: %d", len(results))
	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}
