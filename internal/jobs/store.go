package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound は指定されたジョブが存在しないことを表します。
	ErrNotFound = errors.New("job not found")
	// ErrAlreadyExists は同一IDのジョブが既に存在することを表します。
	ErrAlreadyExists = errors.New("job already exists")
)

// Store はジョブ状態をメモリ上で保持します。
// レコードごとに個別のロックを持つため、別ジョブの更新同士は競合しません。
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

type entry struct {
	mu  sync.Mutex
	rec Record
}

// NewStore は Store を作成します。
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]*entry),
	}
}

// Create は status=processing, progress=0 の新規レコードを登録します。
// 同一IDが既に存在する場合は ErrAlreadyExists を返します（同一ジョブの
// 二重実行を防ぐガード）。
func (s *Store) Create(documentID int64) (*Record, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[documentID]; ok {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrAlreadyExists)
	}
	e := &entry{
		rec: Record{
			DocumentID: documentID,
			Status:     StatusProcessing,
			Progress:   0.0,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	s.entries[documentID] = e
	snapshot := e.rec
	return &snapshot, nil
}

// Get はレコードのスナップショットを返します。
// 返り値は値コピーであり、呼び出し側から内部状態を変更することはできません。
func (s *Store) Get(documentID int64) (*Record, error) {
	e, err := s.entry(documentID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	snapshot := e.rec
	e.mu.Unlock()
	return &snapshot, nil
}

// UpdateProgress は進捗を更新します。進捗は [0,1] に丸め、後退させません。
// 終端状態に達したレコードの進捗は変更しません。
func (s *Store) UpdateProgress(documentID int64, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return s.updatePartial(documentID, func(rec *Record) {
		if rec.Status.Terminal() {
			return
		}
		if progress > rec.Progress {
			rec.Progress = progress
		}
	})
}

// MarkCompleted はジョブを completed に遷移させ、progress=1.0 と完了時刻を設定します。
func (s *Store) MarkCompleted(documentID int64, completedAt time.Time) error {
	return s.updatePartial(documentID, func(rec *Record) {
		if rec.Status.Terminal() {
			return
		}
		rec.Status = StatusCompleted
		rec.Progress = 1.0
		rec.Error = ""
		at := completedAt.UTC()
		rec.CompletedAt = &at
	})
}

// MarkFailed はジョブを error に遷移させ、失敗内容と完了時刻を設定します。
func (s *Store) MarkFailed(documentID int64, message string, completedAt time.Time) error {
	return s.updatePartial(documentID, func(rec *Record) {
		if rec.Status.Terminal() {
			return
		}
		rec.Status = StatusError
		rec.Error = message
		at := completedAt.UTC()
		rec.CompletedAt = &at
	})
}

// updatePartial は単一レコードに対する部分更新をアトミックに適用します。
// mutate の適用とスナップショット読み取りは同一ロック下で行われるため、
// 途中状態が観測されることはありません。
func (s *Store) updatePartial(documentID int64, mutate func(*Record)) error {
	e, err := s.entry(documentID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	mutate(&e.rec)
	e.rec.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()
	return nil
}

func (s *Store) entry(documentID int64) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[documentID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	return e, nil
}
