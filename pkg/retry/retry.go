package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// リトライ関連の定数
	DefaultMaxAttempts = 2 // 初回を含む最大試行回数

	// 線形バックオフの基準間隔 (待機時間 = BaseInterval * 試行回数)
	DefaultBaseInterval = 500 * time.Millisecond
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// Config はリトライ動作を設定するための構造体です。
type Config struct {
	MaxAttempts  uint64        // 初回を含む最大試行回数
	BaseInterval time.Duration // 線形バックオフの基準間隔
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		BaseInterval: DefaultBaseInterval,
	}
}

// linearBackOff は backoff.BackOff を実装し、試行回数に比例して
// 待機時間が増加する線形バックオフ (BaseInterval * 試行回数) を提供します。
type linearBackOff struct {
	baseInterval time.Duration
	attempt      uint64
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return l.baseInterval * time.Duration(l.attempt)
}

func (l *linearBackOff) Reset() {
	l.attempt = 0
}

// Do は線形バックオフを使用して操作をリトライします。
// 失敗の種類を区別せず、すべてのエラーをリトライ対象として扱います。
// Configを引数で受け取ることで、特定のクライアント構造体への依存を排除しています。
func Do(ctx context.Context, cfg Config, operationName string, op Operation) error {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = DefaultBaseInterval
	}

	// backoff の設定 (初回試行 + MaxAttempts-1 回のリトライ)
	lb := &linearBackOff{baseInterval: cfg.BaseInterval}
	bo := backoff.WithMaxRetries(lb, cfg.MaxAttempts-1)
	bo = backoff.WithContext(bo, ctx)

	var lastErr error

	retryableOp := func() error {
		err := op()
		if err == nil {
			return nil // 成功
		}
		lastErr = err
		return err // すべてリトライ対象
	}

	err := backoff.Retry(retryableOp, bo)
	if err != nil {
		// コンテキストキャンセル/タイムアウトのエラー処理
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
		}

		// 最大試行回数到達エラー
		return fmt.Errorf("%sに失敗しました: 最大試行回数 (%d回) に到達。最終エラー: %w", operationName, cfg.MaxAttempts, lastErr)
	}
	return nil
}
