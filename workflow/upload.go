package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"bitbucket.org/mmdatafocus/collections_backend/ingest"
	"bitbucket.org/mmdatafocus/collections_backend/tabular"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "workflow"

var tracer = otel.Tracer("collections-ingest")

// NoValidRowsWarning is added to payment uploads whose rows all failed validation.
const NoValidRowsWarning = "Advertencia: No se encontraron registros válidos después del procesamiento"

// Store is what an upload needs from the relational store.
type Store interface {
	ingest.ColumnSource
	ingest.IdentityLookup
	ingest.Transactor
}

// Archiver keeps a copy of every committed source file.
type Archiver interface {
	Put(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// Notifier announces committed loads.
type Notifier interface {
	PublishLoadCompleted(ctx context.Context, msg config.LoadCompletedMessage) (string, error)
}

// Uploader runs the upload pipeline. Archive, Notifier and Locker are optional.
type Uploader struct {
	Store    Store
	Locker   *redislock.Client
	LockTTL  time.Duration
	Archive  Archiver
	Notifier Notifier

	ReconcileChunkSize int
	LoadChunkSize      int

	Logger *logrus.Logger
	Now    func() time.Time
}

type UploadRequest struct {
	Module   string
	FileName string
	Data     []byte
	// Commit loads the new rows; otherwise the run stops after reconciliation.
	Commit   bool
	Progress ingest.ProgressFunc
}

// UploadResult summarizes one run. ErrorRows and Strategy feed the error report.
type UploadResult struct {
	RunId       string   `json:"run_id"`
	Module      string   `json:"module"`
	Table       string   `json:"table"`
	SourceFile  string   `json:"source_file"`
	Valid       int      `json:"valid"`
	New         int      `json:"new"`
	Duplicates  int      `json:"duplicates"`
	Errors      int      `json:"errors"`
	Inserted    int      `json:"inserted"`
	Committed   bool     `json:"committed"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	ArchiveURI  string   `json:"archive_uri,omitempty"`

	Strategy  *ingest.Strategy     `json:"-"`
	ErrorRows []ingest.ErrorRecord `json:"-"`
}

// Run reads, normalizes, classifies, checks the schema of and reconciles one uploaded
// file, then loads the new rows when req.Commit is set. Steps run in that order and none
// is skipped; any error stops the run before the load.
func (u *Uploader) Run(ctx context.Context, req UploadRequest) (result *UploadResult, err error) {
	logger := u.logger()
	ctx, _ = utils.EnsureCorrelationId(ctx)
	runId := uuid.NewString()
	ctx = utils.SetRunIdInContext(ctx, runId)
	ctx = utils.SetModuleInContext(ctx, req.Module)

	ctx, span := tracer.Start(ctx, "workflow.Upload", trace.WithAttributes(
		attribute.String("ingest.module", req.Module),
		attribute.String("ingest.file", req.FileName),
		attribute.Bool("ingest.commit", req.Commit),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if ingest.IsRejection(err) {
				logger.WithFields(utils.LogFields(ctx)).WithField("file", req.FileName).Warn("upload rejected: " + err.Error())
			} else {
				config.LogError(logger, moduleName, "Uploader.Run", "upload failed", utils.LogFields(ctx), err)
			}
		}
		span.End()
	}()

	strategy, err := ingest.ResolveStrategy(req.Module, req.FileName)
	if err != nil {
		return nil, err
	}
	result = &UploadResult{
		RunId:      runId,
		Module:     req.Module,
		Table:      strategy.Table,
		SourceFile: path.Base(req.FileName),
		Strategy:   strategy,
	}

	sheets, err := tabular.Read(req.FileName, bytes.NewReader(req.Data))
	if err != nil {
		return nil, &ingest.StructuralError{Err: err}
	}
	batch, err := ingest.Normalize(strategy, sheets, result.SourceFile, u.now(), req.Progress)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = batch.Diagnostics
	result.Warnings = batch.Warnings

	valid, errs := ingest.Classify(strategy, batch.Records)
	result.Valid = len(valid)
	result.Errors = len(errs)
	result.ErrorRows = errs
	if len(valid) == 0 && (strategy.Kind == ingest.KindPagosAcuerdo || strategy.Kind == ingest.KindPagosComparendo) {
		result.Warnings = append(result.Warnings, NoValidRowsWarning)
	}

	columns, err := u.Store.Columns(ctx, strategy.Table)
	if err != nil {
		return nil, &ingest.StoreError{Op: "leyendo columnas de " + strategy.Table, Err: err}
	}
	if err := ingest.CheckSchema(strategy.Table, batch.Columns(), columns); err != nil {
		return nil, err
	}

	if req.Commit {
		// hold the table from reconciliation through the load
		release, err := utils.TableLock(ctx, u.Locker, strategy.Table, u.lockTTL(), moduleName, "Uploader.Run")
		if err != nil {
			return nil, err
		}
		defer release()
	}

	rec, err := ingest.Reconcile(ctx, u.Store, strategy.Table, ingest.IDColumn, valid, u.ReconcileChunkSize, req.Progress)
	if err != nil {
		return nil, err
	}
	result.New = len(rec.New)
	result.Duplicates = len(rec.Existing)

	logger.WithFields(utils.LogFields(ctx)).WithFields(logrus.Fields{
		"file":       result.SourceFile,
		"table":      result.Table,
		"valid":      result.Valid,
		"new":        result.New,
		"duplicates": result.Duplicates,
		"errors":     result.Errors,
	}).Info("upload processed")

	if !req.Commit {
		return result, nil
	}

	inserted, err := ingest.Load(ctx, u.Store, strategy, rec.New, u.LoadChunkSize, req.Progress)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted
	result.Committed = true
	span.SetAttributes(attribute.Int("ingest.inserted", inserted))

	u.afterCommit(ctx, req, result, batch.LoadedAt)
	return result, nil
}

// afterCommit archives the source file and publishes the completion message. Both are
// best effort: the rows are already committed.
func (u *Uploader) afterCommit(ctx context.Context, req UploadRequest, result *UploadResult, loadedAt time.Time) {
	logger := u.logger()
	if u.Archive != nil {
		objectName := fmt.Sprintf("%s/%s/%s_%s", result.Table, loadedAt.Format("2006/01/02"), utils.GenerateUniqueFilename(), result.SourceFile)
		uri, err := u.Archive.Put(ctx, objectName, contentTypeFor(req.FileName), req.Data)
		if err != nil {
			config.LogError(logger, moduleName, "Uploader.afterCommit", "archive source file", objectName, err)
		} else {
			result.ArchiveURI = uri
		}
	}
	if u.Notifier != nil {
		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		msg := config.LoadCompletedMessage{
			RunId:         result.RunId,
			Module:        result.Module,
			Table:         result.Table,
			SourceFile:    result.SourceFile,
			Inserted:      result.Inserted,
			Duplicates:    result.Duplicates,
			Errors:        result.Errors,
			LoadedAt:      loadedAt.Format(time.RFC3339),
			CorrelationId: cid,
		}
		if _, err := u.Notifier.PublishLoadCompleted(ctx, msg); err != nil {
			config.LogError(logger, moduleName, "Uploader.afterCommit", "publish load completed", msg, err)
		}
	}
}

func (u *Uploader) logger() *logrus.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return config.GetLogger()
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Uploader) lockTTL() time.Duration {
	if u.LockTTL > 0 {
		return u.LockTTL
	}
	return 5 * time.Minute
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

// IsRollback reports whether err came from a load that was rolled back.
func IsRollback(err error) bool {
	var loadErr *ingest.LoadError
	return errors.As(err, &loadErr) && loadErr.RolledBack
}
