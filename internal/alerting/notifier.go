package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/aggregate"
)

// Notification 封装一次分析批次的告警上下文。
type Notification struct {
	CompletedAt  time.Time
	Provider     string
	WindowStart  time.Time
	WindowEnd    time.Time
	Analyzed     int
	Skipped      int
	SummaryField string
	Summary      aggregate.Summary
	ThresholdPct decimal.Decimal
	// Deepest lists the worst drawdowns of the run, ranked first.
	Deepest []aggregate.Extreme
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送运行摘要。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().
		Time("completed_at", note.CompletedAt).
		Int("analyzed", note.Analyzed).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Drawdown Scan]\n")
	builder.WriteString(fmt.Sprintf("Window: %s .. %s (%s)\n",
		note.WindowStart.UTC().Format("2006-01-02"),
		note.WindowEnd.UTC().Format("2006-01-02"),
		note.Provider))
	builder.WriteString(fmt.Sprintf("Assets: %d analyzed, %d skipped\n", note.Analyzed, note.Skipped))
	builder.WriteString(fmt.Sprintf("Column: %s\n", note.SummaryField))
	if note.Summary.Mean != nil {
		builder.WriteString(fmt.Sprintf("Mean: %s%% (alert threshold %s%%)\n",
			note.Summary.Mean.StringFixed(2), note.ThresholdPct.StringFixed(2)))
	}
	if note.Summary.Median != nil {
		builder.WriteString(fmt.Sprintf("Median: %s%%\n", note.Summary.Median.StringFixed(2)))
	}
	builder.WriteString(fmt.Sprintf("Up/Down: %d/%d\n", note.Summary.Positive, note.Summary.Negative))
	if note.Summary.Best != nil {
		builder.WriteString(fmt.Sprintf("Best: %s (%s%%)\n", note.Summary.Best.Asset.Symbol, note.Summary.Best.Value.StringFixed(2)))
	}
	if note.Summary.Worst != nil {
		builder.WriteString(fmt.Sprintf("Worst: %s (%s%%)\n", note.Summary.Worst.Asset.Symbol, note.Summary.Worst.Value.StringFixed(2)))
	}
	if len(note.Deepest) > 0 {
		builder.WriteString("Deepest drawdowns:\n")
		for _, d := range note.Deepest {
			builder.WriteString(fmt.Sprintf("  %s %s%%\n", d.Asset.Symbol, d.Value.StringFixed(2)))
		}
	}
	return builder.String()
}
