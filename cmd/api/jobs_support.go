package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skrnagar/document-Intelligence/internal/config"
	"github.com/skrnagar/document-Intelligence/internal/document"
	"github.com/skrnagar/document-Intelligence/internal/jobs"
	"github.com/skrnagar/document-Intelligence/internal/notify"
)

func setupJobs(cfg *config.Config) (*jobs.Manager, error) {
	store := jobs.NewStore()
	service := document.NewService()

	timeoutSeconds := cfg.CallbackTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	notifier := notify.NewClient(cfg.CallbackBaseURL, time.Duration(timeoutSeconds)*time.Second, log.Default())

	manager, err := jobs.NewManager(store, service, notifier, log.Default(), cfg.WorkerConcurrency)
	if err != nil {
		return nil, err
	}
	return manager, nil
}

func jobStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("document_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "document_id は整数で指定してください。",
			})
			return
		}

		record, err := manager.GetRecord(documentID)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"code":    "JOB_NOT_FOUND",
					"message": "指定されたドキュメントのジョブは存在しません。",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ジョブ情報の取得に失敗しました。",
			})
			return
		}

		payload := gin.H{
			"status":   record.Status,
			"progress": record.Progress,
		}
		if record.Error != "" {
			payload["error"] = record.Error
		}
		if record.CompletedAt != nil {
			payload["completed_at"] = record.CompletedAt
		}

		c.JSON(http.StatusOK, payload)
	}
}
