package document

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobScheduler はドキュメント処理を非同期実行に引き渡すためのインターフェースです。
// Schedule はリクエスト処理をブロックせず、受理のみを保証します。
type JobScheduler interface {
	Schedule(ctx context.Context, doc Document) error
}

// ProcessRequest は POST /process のリクエストボディです。
// document_id の 0 を有効値として扱うためポインタでバインドします。
type ProcessRequest struct {
	DocumentID *int64         `json:"document_id" binding:"required"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
}

// ProcessHandler は POST /process のハンドラーを返します。
// 処理の完了を待たず、受理した時点で 202 を返します。
func ProcessHandler(scheduler JobScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "document_id を含むJSONボディを送信してください。",
			})
			return
		}

		doc := Document{
			ID:       *req.DocumentID,
			Content:  req.Content,
			Metadata: req.Metadata,
		}
		if err := scheduler.Schedule(c.Request.Context(), doc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ジョブの投入に失敗しました。",
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message":     "Processing started",
			"document_id": doc.ID,
		})
	}
}
