package document

import (
	"context"
	"strings"
	"testing"
)

func TestServiceProcessReportsCheckpoints(t *testing.T) {
	service := NewService()

	type report struct {
		stage    string
		progress float64
	}
	var reports []report
	result, err := service.Process(context.Background(), Document{ID: 42, Content: "hello world"}, func(stage string, progress float64) {
		reports = append(reports, report{stage: stage, progress: progress})
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Process returned nil result")
	}

	expected := []report{
		{"preprocess", 0.3},
		{"extract", 0.6},
		{"embed", 0.9},
	}
	if len(reports) != len(expected) {
		t.Fatalf("unexpected report count: %d", len(reports))
	}
	for i, want := range expected {
		if reports[i] != want {
			t.Fatalf("report[%d] = %+v, want %+v", i, reports[i], want)
		}
	}
}

func TestServiceProcessExtractsFeatures(t *testing.T) {
	service := NewService()

	content := "Hello  hello\r\nworld wide world\r\n"
	result, err := service.Process(context.Background(), Document{ID: 1, Content: content}, nil)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if result.Features.Tokens != 5 {
		t.Fatalf("unexpected token count: %d", result.Features.Tokens)
	}
	if result.Features.UniqueTerms != 3 {
		t.Fatalf("unexpected unique term count: %d", result.Features.UniqueTerms)
	}
	if result.Features.Lines != 2 {
		t.Fatalf("unexpected line count: %d", result.Features.Lines)
	}
	if !strings.HasPrefix(result.Features.ContentType, "text/plain") {
		t.Fatalf("unexpected content type: %s", result.Features.ContentType)
	}
	if result.EmbeddingDims != defaultEmbeddingDims {
		t.Fatalf("unexpected embedding dims: %d", result.EmbeddingDims)
	}
}

func TestServiceProcessEmptyContent(t *testing.T) {
	service := NewService()

	result, err := service.Process(context.Background(), Document{ID: 1}, nil)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Features.Tokens != 0 || result.Features.Lines != 0 {
		t.Fatalf("unexpected features for empty content: %+v", result.Features)
	}
}

func TestServiceProcessCanceledContext(t *testing.T) {
	service := NewService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := service.Process(ctx, Document{ID: 1, Content: "abc"}, nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestServiceProcessDeterministic(t *testing.T) {
	service := NewService()
	doc := Document{ID: 1, Content: "alpha beta gamma alpha"}

	first, err := service.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	second, err := service.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if first.Features != second.Features {
		t.Fatalf("features are not deterministic: %+v vs %+v", first.Features, second.Features)
	}
}
