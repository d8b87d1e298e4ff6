package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/aggregate"
	"drawdown-scan/internal/analysis"
)

func sampleNotification() Notification {
	mean := decimal.RequireFromString("-32.50")
	median := decimal.RequireFromString("-30.10")
	return Notification{
		CompletedAt:  time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC),
		Provider:     "binance",
		WindowStart:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		WindowEnd:    time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
		Analyzed:     42,
		Skipped:      3,
		SummaryField: "total_return_pct",
		Summary: aggregate.Summary{
			Count:    42,
			Mean:     &mean,
			Median:   &median,
			Positive: 10,
			Negative: 32,
		},
		ThresholdPct: decimal.NewFromInt(30),
		Deepest: []aggregate.Extreme{
			{Asset: analysis.Asset{Symbol: "AAA"}, Value: decimal.RequireFromString("-61.20")},
		},
	}
}

func TestRenderMessage(t *testing.T) {
	text := renderMessage(sampleNotification())

	for _, want := range []string{
		"[Drawdown Scan]",
		"Window: 2025-06-02 .. 2025-09-10 (binance)",
		"Assets: 42 analyzed, 3 skipped",
		"Mean: -32.50% (alert threshold 30.00%)",
		"Up/Down: 10/32",
		"AAA -61.20%",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("消息缺少 %q:\n%s", want, text)
		}
	}
}

func TestTelegramNotifySendsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("token123", "chat456", server.URL, time.Second, zerolog.Nop())

	if err := n.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Fatalf("path = %s, want /bottoken123/sendMessage", gotPath)
	}
	if gotBody["chat_id"] != "chat456" {
		t.Fatalf("chat_id = %s, want chat456", gotBody["chat_id"])
	}
	if !strings.Contains(gotBody["text"], "[Drawdown Scan]") {
		t.Fatal("message text missing header")
	}
}

func TestTelegramNotifyRejectsNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("t", "c", server.URL, time.Second, zerolog.Nop())

	if err := n.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("ok=false 必须视为发送失败")
	}
}

func TestTelegramNotifyRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewTelegramNotifier("t", "c", server.URL, time.Second, zerolog.Nop())

	if err := n.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("non-2xx 必须视为发送失败")
	}
}
