package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockHTTPClient は http.Client の Do メソッドをモックします。
// Doer インターフェースを満たします。
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	err := args.Error(1)

	// レスポンスが存在する場合のみ型アサーションを行う
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), err
	}
	return nil, err
}

// テストを高速に保つため、バックオフの基準間隔を極小にしたClientを生成する
func newTestClient(mockClient Doer, attempts uint64) *Client {
	return New(0,
		WithHTTPClient(mockClient),
		WithMaxAttempts(attempts),
		WithBaseBackoff(time.Millisecond),
	)
}

func okResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func TestNew(t *testing.T) {
	t.Run("default_timeout", func(t *testing.T) {
		client := New(0)
		assert.Equal(t, DefaultHTTPTimeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("custom_timeout", func(t *testing.T) {
		timeout := 30 * time.Second
		client := New(timeout)
		assert.Equal(t, timeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("with_http_client_option", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		client := New(10*time.Second, WithHTTPClient(mockClient))
		assert.Equal(t, mockClient, client.httpClient)
	})
	t.Run("with_max_attempts_option", func(t *testing.T) {
		client := New(0, WithMaxAttempts(5))
		assert.Equal(t, uint64(5), client.retryConfig.MaxAttempts)
	})
}

func TestHTTPStatusError_Error(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		expected   string
		statusCode int
	}{
		{"non-empty body", []byte("error body"), "HTTPステータスコードエラー: 404, ボディ: error body", 404},
		{"empty body", nil, "HTTPステータスコードエラー: 404, ボディなし", 404},
		{"truncated body", []byte(strings.Repeat("a", 2048)), "HTTPステータスコードエラー: 404, ボディ: " + strings.Repeat("a", 1024) + "...", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &HTTPStatusError{StatusCode: tt.statusCode, Body: tt.body}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestFetchBytes(t *testing.T) {
	url := "https://example.com"
	ctx := context.Background()

	t.Run("successful_fetch", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		expectedBody := []byte("<html></html>")
		mockClient.On("Do", mock.Anything).Return(okResponse(expectedBody), nil).Once()

		client := newTestClient(mockClient, 2)
		body, err := client.FetchBytes(ctx, url)
		assert.NoError(t, err)
		assert.Equal(t, expectedBody, body)
		mockClient.AssertExpectations(t)
	})

	t.Run("network_error_without_retries", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var resp *http.Response
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("network error"))

		client := newTestClient(mockClient, 1)
		body, err := client.FetchBytes(ctx, url)
		assert.Error(t, err)
		assert.Nil(t, body)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("user_agent_header_is_set", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.Header.Get("User-Agent") == UserAgent
		})).Return(okResponse([]byte("ok")), nil).Once()

		client := newTestClient(mockClient, 1)
		_, err := client.FetchBytes(ctx, url)
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})
}

func TestFetchText(t *testing.T) {
	ctx := context.Background()

	t.Run("successful_fetch_returns_text", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(okResponse([]byte("こんにちは")), nil).Once()

		client := newTestClient(mockClient, 1)
		text, err := client.FetchText(ctx, "https://example.com")
		assert.NoError(t, err)
		assert.Equal(t, "こんにちは", text)
	})

	t.Run("fetch_error_returns_empty_text", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var resp *http.Response
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("network error"))

		client := newTestClient(mockClient, 1)
		text, err := client.FetchText(ctx, "https://example.com")
		assert.Error(t, err)
		assert.Empty(t, text)
	})
}

// --- リトライロジックの検証テスト ---
func TestFetchBytes_WithRetries(t *testing.T) {
	url := "https://example.com"
	ctx := context.Background()

	t.Run("successful_fetch_after_network_error", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		expectedBody := []byte("Success")
		var resp *http.Response

		// 1回目: ネットワークエラー
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("temporary network error")).Once()
		// 2回目: 成功
		mockClient.On("Do", mock.Anything).Return(okResponse(expectedBody), nil).Once()

		client := newTestClient(mockClient, 2)
		body, err := client.FetchBytes(ctx, url)
		assert.NoError(t, err)
		assert.Equal(t, expectedBody, body)
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})

	t.Run("non_success_status_is_retried", func(t *testing.T) {
		// ステータスコードによる成功/部分成功の区別はなく、4xxもリトライ対象
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(&http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader([]byte("not found"))),
		}, nil).Once()
		mockClient.On("Do", mock.Anything).Return(okResponse([]byte("recovered")), nil).Once()

		client := newTestClient(mockClient, 2)
		body, err := client.FetchBytes(ctx, url)
		assert.NoError(t, err)
		assert.Equal(t, []byte("recovered"), body)
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})

	t.Run("failure_after_all_attempts_exhausted", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var resp *http.Response

		// MaxAttempts=2 のため、Doは合計2回呼ばれる
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("network error")).Times(2)

		client := newTestClient(mockClient, 2)
		body, err := client.FetchBytes(ctx, url)
		assert.Error(t, err)
		assert.Nil(t, body)

		// 試行回数が設定された最大値と一致することを確認
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})

	t.Run("status_error_is_reported_after_exhaustion", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(&http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil).Times(2)

		client := newTestClient(mockClient, 2)
		body, err := client.FetchBytes(ctx, url)
		assert.Error(t, err)
		assert.True(t, IsStatusError(err))
		assert.Nil(t, body)
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})
}

func TestIsStatusError(t *testing.T) {
	t.Run("nil_error", func(t *testing.T) {
		assert.False(t, IsStatusError(nil))
	})
	t.Run("status_error", func(t *testing.T) {
		err := &HTTPStatusError{StatusCode: 500}
		assert.True(t, IsStatusError(err))
	})
	t.Run("other_error_type", func(t *testing.T) {
		assert.False(t, IsStatusError(errors.New("some error")))
	})
}
