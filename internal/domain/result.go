package domain

import "fmt"

// PageContent - результат загрузки страницы: либо текст, либо ошибка с исходным URL.
type PageContent struct {
	URL  string
	Text string
	Err  error
}

func ScrapedPage(url, text string) PageContent {
	return PageContent{URL: url, Text: text}
}

func FailedPage(url string, err error) PageContent {
	return PageContent{URL: url, Err: err}
}

func (p PageContent) Scraped() bool {
	return p.Err == nil
}

// SummaryEntry - пара name/price из ответа модели по одному чанку.
// Price == nil, если модель вернула null или страницу не удалось скачать.
type SummaryEntry struct {
	Name      string
	Price     *string
	ErrorText string
}

func NewSummaryEntry(name string, price *string) SummaryEntry {
	return SummaryEntry{Name: name, Price: price}
}

func UnscrapedEntry(url string) SummaryEntry {
	return SummaryEntry{ErrorText: fmt.Sprintf("URL %s couldn't be scraped", url)}
}

func (e SummaryEntry) IsPlaceholder() bool {
	return e.ErrorText != ""
}

type EnrichedResult struct {
	Name      string   `json:"name"`
	Price     string   `json:"price"`
	ImageURLs []string `json:"image_urls"`
}

func NewEnrichedResult(entry SummaryEntry, images []string) EnrichedResult {
	if images == nil {
		images = []string{}
	}
	var price string
	if entry.Price != nil {
		price = *entry.Price
	}
	return EnrichedResult{
		Name:      entry.Name,
		Price:     price,
		ImageURLs: images,
	}
}

func StringPtr(s string) *string {
	return &s
}
