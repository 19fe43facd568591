package telegram

import (
	"strconv"
	"strings"
)

// ParseSearchCommand разбирает текст сообщения в запрос и start.
// "/search iphone 16 @11" -> ("iphone 16", 11); обычный текст -> (текст, 1).
// Хвост вида @N задаёт start, если N - положительное число.
func ParseSearchCommand(text string) (query string, start int) {
	text = strings.TrimSpace(text)
	start = 1

	if strings.HasPrefix(text, "/") {
		parts := strings.SplitN(text, " ", 2)
		command := strings.ToLower(parts[0])
		if i := strings.IndexByte(command, '@'); i >= 0 {
			command = command[:i] // /search@price_bot
		}
		if command != "/search" {
			return text, start
		}
		text = ""
		if len(parts) > 1 {
			text = parts[1]
		}
	}

	fields := strings.Fields(text)
	if n := len(fields); n > 1 && strings.HasPrefix(fields[n-1], "@") {
		if v, err := strconv.Atoi(fields[n-1][1:]); err == nil && v > 0 {
			start = v
			fields = fields[:n-1]
		}
	}

	return strings.Join(fields, " "), start
}
