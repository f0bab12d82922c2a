// Package jobs は非同期ジョブの状態管理と実行を提供します。
package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/skrnagar/document-Intelligence/internal/document"
	"github.com/skrnagar/document-Intelligence/internal/notify"
)

const defaultConcurrency = 4

// Processor はドキュメント処理パイプラインを実行できるサービスが実装します。
type Processor interface {
	Process(ctx context.Context, doc document.Document, reporter document.ProgressReporter) (*document.Result, error)
}

// Notifier は終端通知の送信先URLの構築と送信を提供します。
type Notifier interface {
	CallbackURL(documentID int64) string
	Notify(ctx context.Context, endpoint string, payload notify.Payload) error
}

// Manager はジョブの投入と実行を担います。
// 投入はリクエスト処理をブロックせず、実行は同時実行数を上限とする
// ワーカープール（セマフォで制限されたゴルーチン群）で行われます。
type Manager struct {
	store     *Store
	processor Processor
	notifier  Notifier
	logger    *log.Logger
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
}

// NewManager は Manager を初期化します。
func NewManager(store *Store, processor Processor, notifier Notifier, logger *log.Logger, concurrency int) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if processor == nil {
		return nil, errors.New("processor is nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Manager{
		store:     store,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
		sem:       semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

// Schedule はドキュメント処理をバックグラウンド実行に引き渡します。
// 実行の完了は待たず、結果への参照も保持しません。
func (m *Manager) Schedule(_ context.Context, doc document.Document) error {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runDocument(context.Background(), doc)
	}()
	return nil
}

// GetRecord はジョブ状態のスナップショットを取得します。
func (m *Manager) GetRecord(documentID int64) (*Record, error) {
	return m.store.Get(documentID)
}

// Shutdown は実行中のジョブが終わるまで待機します。
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runDocument は1ジョブを終端状態まで実行します。
// レコードはバックグラウンド実行の開始時点で作成され（投入時ではない）、
// ステージ失敗は必ず error 終端に変換されます。
func (m *Manager) runDocument(ctx context.Context, doc document.Document) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.logger.Printf("failed to acquire worker slot document=%d: %v", doc.ID, err)
		return
	}
	defer m.sem.Release(1)

	if _, err := m.store.Create(doc.ID); err != nil {
		// 同一IDの二重実行は不変条件違反のため、上書きせずに中断する
		m.logger.Printf("refusing to start job document=%d: %v", doc.ID, err)
		return
	}

	// コールバック先はジョブごとに一度だけ計算し、成功/失敗の両分岐で使う
	callbackURL := m.notifier.CallbackURL(doc.ID)

	result, err := m.processor.Process(ctx, doc, func(stage string, progress float64) {
		if err := m.store.UpdateProgress(doc.ID, progress); err != nil {
			m.logger.Printf("failed to update progress document=%d stage=%s: %v", doc.ID, stage, err)
		}
	})
	if err != nil {
		m.failDocument(ctx, doc.ID, callbackURL, err)
		return
	}
	m.finishDocument(ctx, doc.ID, callbackURL, result)
}

func (m *Manager) finishDocument(ctx context.Context, documentID int64, callbackURL string, result *document.Result) {
	if err := m.store.MarkCompleted(documentID, time.Now()); err != nil {
		m.logger.Printf("failed to mark job completed document=%d: %v", documentID, err)
		return
	}
	if result != nil {
		m.logger.Printf("document processed document=%d tokens=%d dims=%d",
			documentID, result.Features.Tokens, result.EmbeddingDims)
	}

	m.deliver(ctx, callbackURL, notify.Payload{
		Status:     string(StatusCompleted),
		DocumentID: documentID,
	})
}

func (m *Manager) failDocument(ctx context.Context, documentID int64, callbackURL string, cause error) {
	if err := m.store.MarkFailed(documentID, cause.Error(), time.Now()); err != nil {
		m.logger.Printf("failed to mark job failed document=%d: %v", documentID, err)
		return
	}
	m.logger.Printf("document processing failed document=%d: %v", documentID, cause)

	m.deliver(ctx, callbackURL, notify.Payload{
		Status:     string(StatusError),
		DocumentID: documentID,
		Error:      cause.Error(),
	})
}

// deliver は終端通知をジョブごとに1回だけ送信します。
// 配送失敗はログに残すのみで、ジョブ状態には反映しません。
func (m *Manager) deliver(ctx context.Context, callbackURL string, payload notify.Payload) {
	if err := m.notifier.Notify(ctx, callbackURL, payload); err != nil {
		m.logger.Printf("callback delivery failed document=%d status=%s: %v",
			payload.DocumentID, payload.Status, err)
	}
}
