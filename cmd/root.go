package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/shouni/go-web-harvest/pkg/httpclient"
	"github.com/spf13/cobra"
)

// --- グローバル定数 ---

const (
	appName            = "web-harvest"
	defaultTimeoutSec  = 10 // 秒
	defaultMaxAttempts = 2  // 初回を含むフェッチ試行回数

	// 全体処理のタイムアウトのフォールバック (scrapeCmd で利用)
	DefaultOverallTimeout = 60 * time.Second
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec  int // --timeout タイムアウト
	MaxAttempts int // --max-attempts フェッチ試行回数
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数
var globalClient *httpclient.Client

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxAttempts,
		"max-attempts",
		defaultMaxAttempts,
		"フェッチの最大試行回数（初回を含む）",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {

	timeout := time.Duration(Flags.TimeoutSec) * time.Second
	if Flags.MaxAttempts < 1 {
		Flags.MaxAttempts = 1
	}

	// clibase.Flags の利用
	if clibase.Flags.Verbose {
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", timeout)
		log.Printf("フェッチの試行回数を設定しました (MaxAttempts: %d)。", Flags.MaxAttempts)
	}

	// 共有クライアントの初期化
	globalClient = httpclient.New(
		timeout,
		httpclient.WithMaxAttempts(uint64(Flags.MaxAttempts)),
	)

	return nil
}

// GetGlobalClient は、初期化された共有HTTPクライアントを返す関数 (DIの代わり)
func GetGlobalClient() *httpclient.Client {
	return globalClient
}

// --- エントリポイント ---

// Execute は、アプリケーションを実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	// clibase.Execute を使用して、アプリケーションの初期化、フラグ設定、サブコマンドの登録を一括で行う
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		scrapeCmd,
	)
	// clibase.Execute() の中で os.Exit(1) が処理されるため、ここでは不要
}
