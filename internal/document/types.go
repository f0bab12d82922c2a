// Package document はドキュメント処理パイプラインとそのHTTPハンドラーを提供します。
package document

// Document は処理対象の1ドキュメントを表します。
type Document struct {
	ID       int64          `json:"document_id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Features は特徴抽出ステージの出力です。
type Features struct {
	ContentType string `json:"contentType"`
	Bytes       int    `json:"bytes"`
	Lines       int    `json:"lines"`
	Tokens      int    `json:"tokens"`
	UniqueTerms int    `json:"uniqueTerms"`
}
