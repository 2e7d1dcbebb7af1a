package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"

	"tiendero/pkg/logger"
)

// SnapshotWriter streams a full data export as JSON.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, w io.Writer) error
}

// BackupHandler serves full-dataset exports.
type BackupHandler struct {
	*BaseHandler
	backups SnapshotWriter
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(backups SnapshotWriter) *BackupHandler {
	return &BackupHandler{BaseHandler: NewBaseHandler(), backups: backups}
}

// Export streams a zstd-compressed JSON snapshot of every catalog,
// ledger and document table as a file download.
func (h *BackupHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	filename := fmt.Sprintf("tiendero-backup-%s.json.zst",
		time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	zw, err := zstd.NewWriter(c.Writer, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		logger.Error(ctx, "failed to create backup encoder", "error", err)
		return
	}

	if err := h.backups.WriteSnapshot(ctx, zw); err != nil {
		// The status line is already on the wire. Closing the stream
		// mid-body is the only way left to signal failure.
		logger.Error(ctx, "backup export failed", "error", err)
		_ = zw.Close()
		return
	}
	if err := zw.Close(); err != nil {
		logger.Error(ctx, "failed to flush backup stream", "error", err)
	}
}
