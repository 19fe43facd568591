package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain body",
			html: `<html><body><h1>IPhone 16</h1><p>Price: 799$</p></body></html>`,
			want: "IPhone 16 Price: 799$",
		},
		{
			name: "scripts and styles dropped",
			html: `<html><head><style>body{color:red}</style><script>var x = 1;</script></head>
				<body><div>  Pixel 9  </div><noscript>enable js</noscript><span>499$</span></body></html>`,
			want: "Pixel 9 499$",
		},
		{
			name: "title counts as text",
			html: `<html><head><title>Shop</title></head><body><!-- comment --><b>X</b></body></html>`,
			want: "Shop X",
		},
		{
			name: "empty document",
			html: ``,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("NewDocumentFromReader() error = %v", err)
			}
			if got := ExtractText(doc); got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>Galaxy S24</p><p>999$</p></body></html>`))
	}))
	defer server.Close()

	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	page := f.Fetch(context.Background(), server.URL)

	if !page.Scraped() {
		t.Fatalf("Fetch() err = %v, want scraped page", page.Err)
	}
	if page.URL != server.URL {
		t.Errorf("URL = %q, want %q", page.URL, server.URL)
	}
	if page.Text != "Galaxy S24 999$" {
		t.Errorf("Text = %q", page.Text)
	}
	if !strings.HasPrefix(userAgent, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want browser-like", userAgent)
	}
}

func TestHTTPFetcher_Fetch_NonOKStatusStillParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<html><body>Not Found</body></html>`))
	}))
	defer server.Close()

	page := New(Config{}, zap.NewNop()).Fetch(context.Background(), server.URL)

	if !page.Scraped() {
		t.Fatalf("Fetch() err = %v, want scraped page", page.Err)
	}
	if page.Text != "Not Found" {
		t.Errorf("Text = %q", page.Text)
	}
}

func TestHTTPFetcher_Fetch_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	page := New(Config{Timeout: time.Second}, zap.NewNop()).Fetch(context.Background(), url)

	if page.Scraped() {
		t.Fatal("Fetch() of closed server should fail")
	}
	if page.URL != url {
		t.Errorf("URL = %q, want %q", page.URL, url)
	}
	if !errors.Is(page.Err, domain.ErrFetch) {
		t.Errorf("Err = %v, want ErrFetch", page.Err)
	}
}

func TestHTTPFetcher_Fetch_InvalidURL(t *testing.T) {
	page := New(Config{}, zap.NewNop()).Fetch(context.Background(), "://bad")
	if page.Scraped() {
		t.Fatal("Fetch() of invalid url should fail")
	}
}

func TestHTTPFetcher_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	page := New(Config{Timeout: 5 * time.Second}, zap.NewNop()).Fetch(ctx, server.URL)
	if page.Scraped() {
		t.Fatal("Fetch() should fail on cancelled context")
	}
}
