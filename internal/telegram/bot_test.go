package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	actions int
	updates chan tgbotapi.Update
	stopped bool
	sendErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, m)
	case tgbotapi.ChatActionConfig:
		f.actions++
	}
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []domain.EnrichedResult
	err     error
	delay   time.Duration
	calls   int
	query   string
	start   int
}

func (f *fakeSearcher) HandleSearch(ctx context.Context, text string, start int) ([]domain.EnrichedResult, error) {
	f.mu.Lock()
	f.calls++
	f.query = text
	f.start = start
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.results, f.err
}

func newTestBot(searcher Searcher) (*Bot, *fakeAPI) {
	api := newFakeAPI()
	return newBot(api, BotConfig{}, searcher, zap.NewNop(), nil), api
}

func TestNewBot_DefaultTimeout(t *testing.T) {
	bot, _ := newTestBot(&fakeSearcher{})
	if bot.timeout != 300*time.Second {
		t.Errorf("timeout = %v, want 300s", bot.timeout)
	}
	if bot.handler == nil {
		t.Error("handler should be set")
	}
}

func TestBot_Send(t *testing.T) {
	bot, api := newTestBot(&fakeSearcher{})

	if err := bot.Send(42, "<b>hi</b>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	msg := api.sent[0]
	if msg.ChatID != 42 || msg.Text != "<b>hi</b>" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("ParseMode = %q, want HTML", msg.ParseMode)
	}
	if !msg.DisableWebPagePreview {
		t.Error("web page preview should be disabled")
	}
}

func TestBot_Send_Error(t *testing.T) {
	bot, api := newTestBot(&fakeSearcher{})
	api.sendErr = errors.New("network")

	if err := bot.Send(1, "x"); err == nil {
		t.Error("Send() should return api error")
	}
}

func TestBot_Run_HandlesUpdatesAndStops(t *testing.T) {
	searcher := &fakeSearcher{results: []domain.EnrichedResult{{Name: "pixel", Price: "499$", ImageURLs: []string{}}}}
	bot, api := newTestBot(searcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{}
	api.updates <- tgbotapi.Update{Message: textMessage(7, "pixel 9")}

	deadline := time.After(2 * time.Second)
	for len(api.texts()) == 0 {
		select {
		case <-deadline:
			t.Fatal("bot did not answer")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("StopReceivingUpdates should be called")
	}
}

func TestBot_Run_ClosedChannel(t *testing.T) {
	bot, api := newTestBot(&fakeSearcher{})
	close(api.updates)

	if err := bot.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

type panicSearcher struct{}

func (panicSearcher) HandleSearch(context.Context, string, int) ([]domain.EnrichedResult, error) {
	panic("boom")
}

func TestBot_HandleUpdate_RecoversPanic(t *testing.T) {
	bot, _ := newTestBot(panicSearcher{})

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped handleUpdate: %v", r)
		}
	}()
	bot.handleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(1, "x")})
}
