package summarize

// DefaultChunkSize - размер чанка в символах (рунах), без перекрытия
const DefaultChunkSize = 1024

// Chunk режет text на куски по size рун, последний может быть короче.
// Пустой текст даёт nil.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
