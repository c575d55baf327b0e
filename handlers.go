package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/ingest"
	"bitbucket.org/mmdatafocus/collections_backend/reports"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"bitbucket.org/mmdatafocus/collections_backend/workflow"
	"github.com/gin-gonic/gin"
)

func (a *app) healthHandler(c *gin.Context) {
	if !a.ready.Load() {
		c.Status(http.StatusNoContent)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unreachable"})
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadHandler previews an upload, or loads it with ?commit=true.
func (a *app) uploadHandler(c *gin.Context) {
	fileName, data, ok := a.readUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res, err := a.uploader.Run(ctx, workflow.UploadRequest{
		Module:   c.Param("module"),
		FileName: fileName,
		Data:     data,
		Commit:   strings.EqualFold(c.Query("commit"), "true"),
		Progress: a.progressLogger(ctx),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// uploadErrorsHandler processes an upload without loading it and returns its error rows,
// as CSV by default or xlsx with ?format=xlsx.
func (a *app) uploadErrorsHandler(c *gin.Context) {
	fileName, data, ok := a.readUpload(c)
	if !ok {
		return
	}
	res, err := a.uploader.Run(c.Request.Context(), workflow.UploadRequest{
		Module:   c.Param("module"),
		FileName: fileName,
		Data:     data,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "xlsx") {
		attachment(c, reports.ErrorReportName(res.Table, ".xlsx"), reports.ContentTypeXLSX)
		if err := reports.WriteErrorWorkbook(c.Writer, res.Strategy, res.ErrorRows); err != nil {
			_ = c.Error(err)
		}
		return
	}
	attachment(c, reports.ErrorReportName(res.Table, ".csv"), reports.ContentTypeCSV)
	if err := reports.WriteErrorCSV(c.Writer, res.Strategy, res.ErrorRows); err != nil {
		_ = c.Error(err)
	}
}

// crossReferenceHandler returns the cross-reference workbook, or the metrics as JSON with
// ?format=json.
func (a *app) crossReferenceHandler(c *gin.Context) {
	fileName, data, ok := a.readUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	result, err := a.crossRef.Run(ctx, workflow.CrossReferenceRequest{
		FileName: fileName,
		Data:     data,
		Progress: a.progressLogger(ctx),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "json") {
		m := result.Metrics
		c.JSON(http.StatusOK, gin.H{
			"total":          m.Total,
			"by_case_code":   m.ByCaseCode,
			"by_document":    m.ByDocument,
			"no_match":       m.NoMatch,
			"matched_either": m.MatchedEither,
			"unmatched":      m.Unmatched,
		})
		return
	}
	attachment(c, reports.CrossReferenceName(time.Now()), reports.ContentTypeXLSX)
	if err := reports.WriteCrossReference(c.Writer, result); err != nil {
		_ = c.Error(err)
	}
}

// readUpload reads the multipart "file" field, writing the 400 itself when it cannot.
func (a *app) readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", nil, false
	}
	if a.maxUploadBytes > 0 && fh.Size > a.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", a.maxUploadBytes>>20)})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read file"})
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read file"})
		return "", nil, false
	}
	return fh.Filename, data, true
}

func (a *app) progressLogger(ctx context.Context) ingest.ProgressFunc {
	fields := utils.LogFields(ctx)
	return func(fraction float64, message string) {
		a.logger.WithFields(fields).WithField("progress", fraction).Debug(message)
	}
}

func attachment(c *gin.Context, name, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
}

// writeError maps workflow errors to responses. The workflow has already logged them.
func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var structural *ingest.StructuralError
	switch {
	case errors.Is(err, ingest.ErrUnknownModule):
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, utils.ErrLoadInProgress):
		c.JSON(http.StatusConflict, body)
	case ingest.IsRejection(err):
		if errors.As(err, &structural) && len(structural.Diagnostics) > 0 {
			body["diagnostics"] = structural.Diagnostics
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	default:
		body["rollback"] = workflow.IsRollback(err)
		c.JSON(http.StatusInternalServerError, body)
	}
}
