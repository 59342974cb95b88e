package main

import (
	"github.com/shouni/go-web-harvest/cmd"
)

// main 関数は、CLIのエントリポイントです。
// フラグ解釈とエラーハンドリングは cmd パッケージに一元化されています。
func main() {
	cmd.Execute()
}
