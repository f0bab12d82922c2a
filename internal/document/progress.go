package document

// ProgressReporter は進捗更新用コールバックです。
type ProgressReporter func(stage string, progress float64)

func reportProgress(cb ProgressReporter, stage string, progress float64) {
	if cb == nil {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	cb(stage, progress)
}
