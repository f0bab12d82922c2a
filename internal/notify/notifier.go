// Package notify はジョブ終端時の外部コールバック送信を提供します。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payload は外部サービスへ送る終端通知の内容です。
// 終端遷移のたびに新しく構築され、保存はされません。
type Payload struct {
	Status     string `json:"status"`
	DocumentID int64  `json:"document_id"`
	Error      string `json:"error,omitempty"`
}

// Client はコールバック先へのHTTP通知クライアントです。
// 再送は行いません（ベストエフォート配送）。配送の成否はジョブ状態に影響しません。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient は Client を作成します。
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// CallbackURL はドキュメントIDに対応するコールバックURLを構築します。
func (c *Client) CallbackURL(documentID int64) string {
	return fmt.Sprintf("%s/api/documents/%d/callback", c.baseURL, documentID)
}

// Notify は終端通知を1回だけ送信します。
// トランスポート失敗および非2xx応答はエラーとして返しますが、
// リトライ判断は呼び出し側に委ねます。
func (c *Client) Notify(ctx context.Context, endpoint string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback delivery failed: %w", err)
	}
	defer resp.Body.Close()
	// 応答本文は解釈しない（成否のログのみ）
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	c.logger.Printf("callback delivered document=%d status=%s", payload.DocumentID, payload.Status)
	return nil
}
