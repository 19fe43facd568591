package summarize

import "fmt"

const systemPrompt = `You extract product offers from fragments of web pages.
Reply with a single JSON object and nothing else.
Each key is a product name exactly as it appears in the text, each value is its price as a string including the currency.
If a product is mentioned but its price is not in the fragment, use null.
Include only products relevant to the user's search query.
If the fragment contains no relevant products, reply with {}.`

func buildPrompt(query, chunk string) string {
	return fmt.Sprintf("Search query: %s\n\nPage fragment:\n%s", query, chunk)
}
