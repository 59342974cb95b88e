package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-web-harvest/pkg/retry"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 10 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (compatible; HarvestBot/1.0)"
)

// HTTPStatusError は成功 (2xx) 以外のステータスコードを示すカスタムエラー型です。
// ステータスコードによる成功/部分成功の区別は行わず、一律に失敗として扱います。
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

// errorBodyLimit はエラーメッセージに含めるボディの最大長です。
const errorBodyLimit = 1024

func (e *HTTPStatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTPステータスコードエラー: %d, ボディなし", e.StatusCode)
	}
	body := strings.TrimSpace(string(e.Body))
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit] + "..."
	}
	return fmt.Sprintf("HTTPステータスコードエラー: %d, ボディ: %s", e.StatusCode, body)
}

// IsStatusError は与えられたエラーがHTTPステータスコード起因であるかを判断します。
func IsStatusError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client はHTTP GETリクエストと線形バックオフを用いたリトライロジックを管理します。
// ネットワークエラーも非成功ステータスも同列の失敗として扱い、設定された
// 試行回数を使い切った時点でエラーを返します (リトライ判定の分岐はありません)。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*Client)

// WithHTTPClient はカスタムのDoerを設定します (テスト用のモック注入など)。
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxAttempts は初回を含む最大試行回数を設定します。
func WithMaxAttempts(attempts uint64) ClientOption {
	return func(c *Client) {
		c.retryConfig.MaxAttempts = attempts
	}
}

// WithBaseBackoff は線形バックオフの基準間隔を設定します。
func WithBaseBackoff(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConfig.BaseInterval = interval
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, options ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retry.DefaultConfig(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// FetchBytes はURLからコンテンツを取得し、生のバイト配列として返します。
// すべての試行が失敗した場合、原因をログに1行記録した上でエラーを返します。
// エラーはこのクライアントの境界を越えてパニックすることはありません。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var bodyBytes []byte

	op := func() error {
		var fetchErr error
		bodyBytes, fetchErr = c.doFetch(ctx, url)
		return fetchErr
	}

	err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)のフェッチ", url), op)
	if err != nil {
		// 恒久的に失敗したフェッチはURLと原因を記録する (呼び出し元の可視性のため)
		log.Printf("[httpclient] フェッチに失敗しました URL=%s: %v", url, err)
		return nil, err
	}
	return bodyBytes, nil
}

// FetchText はURLからコンテンツを取得し、UTF-8テキストとして返します。
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// doFetch は実際の一度のHTTP GETリクエストを実行し、レスポンスボディを返します。
func (c *Client) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, MaxBodySize)
	bodyBytes, readErr := io.ReadAll(limitedReader)

	// 2xx 以外はすべて失敗としてリトライ対象に含める
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
		}
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: bodyBytes}
	}

	if readErr != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", readErr)
	}

	if resp.ContentLength > 0 && resp.ContentLength > MaxBodySize {
		return nil, fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", MaxBodySize)
	}

	return bodyBytes, nil
}
