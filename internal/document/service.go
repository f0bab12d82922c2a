package document

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// パイプラインの進捗チェックポイント。1.0 は完了時に予約されています。
const (
	checkpointPreprocess = 0.3
	checkpointExtract    = 0.6
	checkpointEmbed      = 0.9
)

const defaultEmbeddingDims = 16

// Result はパイプライン処理の成果を表します。
type Result struct {
	DocumentID    int64    `json:"document_id"`
	Features      Features `json:"features"`
	EmbeddingDims int      `json:"embeddingDims"`
}

// Service はドキュメント処理パイプラインを実行します。
// ステージは前処理 → 特徴抽出 → 埋め込み生成 の固定順で、
// いずれかが失敗した時点で残りのステージは実行されません。
type Service struct {
	embeddingDims int
}

// NewService は Service を作成します。
func NewService() *Service {
	return &Service{
		embeddingDims: defaultEmbeddingDims,
	}
}

type pipelineState struct {
	doc        Document
	normalized string
	tokens     []string
	features   Features
	embedding  []float64
}

// Process はドキュメントをパイプラインに通し、各ステージ完了後に
// reporter へ進捗チェックポイントを通知します。
func (s *Service) Process(ctx context.Context, doc Document, reporter ProgressReporter) (*Result, error) {
	state := &pipelineState{doc: doc}

	stages := []struct {
		name       string
		checkpoint float64
		run        func(context.Context, *pipelineState) error
	}{
		{"preprocess", checkpointPreprocess, s.preprocess},
		{"extract", checkpointExtract, s.extractFeatures},
		{"embed", checkpointEmbed, s.generateEmbedding},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stage.run(ctx, state); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.name, err)
		}
		reportProgress(reporter, stage.name, stage.checkpoint)
	}

	return &Result{
		DocumentID:    doc.ID,
		Features:      state.features,
		EmbeddingDims: len(state.embedding),
	}, nil
}

// preprocess は改行コードの統一と余分な空白の除去を行い、
// コンテンツ種別を判定します。内容の意味的な検証は行いません。
func (s *Service) preprocess(_ context.Context, state *pipelineState) error {
	content := strings.ReplaceAll(state.doc.Content, "\r\n", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		lines[i] = strings.Join(fields, " ")
	}
	state.normalized = strings.TrimSpace(strings.Join(lines, "\n"))
	state.tokens = strings.Fields(strings.ToLower(state.normalized))
	state.features.ContentType = mimetype.Detect([]byte(state.doc.Content)).String()
	return nil
}

func (s *Service) extractFeatures(_ context.Context, state *pipelineState) error {
	unique := make(map[string]struct{}, len(state.tokens))
	for _, token := range state.tokens {
		unique[token] = struct{}{}
	}

	state.features.Bytes = len(state.normalized)
	if state.normalized != "" {
		state.features.Lines = strings.Count(state.normalized, "\n") + 1
	}
	state.features.Tokens = len(state.tokens)
	state.features.UniqueTerms = len(unique)
	return nil
}

// generateEmbedding はトークンをFNVハッシュで固定次元のベクトルに写像します。
// 同一コンテンツからは常に同一のベクトルが得られます。
func (s *Service) generateEmbedding(_ context.Context, state *pipelineState) error {
	dims := s.embeddingDims
	if dims <= 0 {
		dims = defaultEmbeddingDims
	}

	vec := make([]float64, dims)
	for _, token := range state.tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	state.embedding = vec
	return nil
}
