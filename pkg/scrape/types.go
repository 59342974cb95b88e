package scrape

// ElementRecord は、セレクターに一致した1ノードの平坦な表現です。
// 一度生成された後は変更されません。
type ElementRecord struct {
	Text  string            // 余分な空白を畳み込んだ可視テキスト
	HTML  string            // ノードのシリアライズ済みマークアップ
	Attrs map[string]string // 属性名から値へのマッピング (常に非nil)
}

// ImageRecord は、位置特定された1画像とその周辺文脈のメタデータです。
// 存在しないフィールドは欠落ではなく空文字列で表現されるため、
// 1回の抽出で得られる全レコードは同一のフィールド集合を共有します
// (区切りテキストエクスポートが先頭レコードからヘッダーを導出するための前提)。
type ImageRecord struct {
	Index           int    // 位置特定された画像の中での1始まりの位置
	ImageURL        string // ベースURLに対して解決済みの絶対URL
	Caption         string // 最近傍の figure 包含要素のキャプションテキスト
	Filename        string // URLパスの末尾要素、または合成されたフォールバック名
	Alt             string
	Title           string
	ParentText      string // 直接の親要素の可視テキスト
	PrevSiblingText string // 直前の兄弟要素の可視テキスト
	NextSiblingText string // 直後の兄弟要素の可視テキスト
	ContainerText   string // 最近傍のブロックレベル包含要素の可視テキスト
	OCRText         string // 文字認識が有効かつ成功した場合のみ非空
}
