package workflow

import (
	"bytes"
	"context"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"bitbucket.org/mmdatafocus/collections_backend/ingest"
	"bitbucket.org/mmdatafocus/collections_backend/tabular"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CrossReferencer matches an uploaded payments file against the gestiones history.
type CrossReferencer struct {
	History   ingest.HistorySource
	ChunkSize int
	Logger    *logrus.Logger
}

type CrossReferenceRequest struct {
	FileName string
	Data     []byte
	Progress ingest.ProgressFunc
}

// Run reads the first sheet of the file and returns both match results with metrics.
func (x *CrossReferencer) Run(ctx context.Context, req CrossReferenceRequest) (result *ingest.CrossRefResult, err error) {
	logger := x.Logger
	if logger == nil {
		logger = config.GetLogger()
	}
	ctx, _ = utils.EnsureCorrelationId(ctx)
	ctx, span := tracer.Start(ctx, "workflow.CrossReference", trace.WithAttributes(
		attribute.String("ingest.file", req.FileName),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			config.LogError(logger, moduleName, "CrossReferencer.Run", "cross reference failed", utils.LogFields(ctx), err)
		}
		span.End()
	}()

	sheets, err := tabular.Read(req.FileName, bytes.NewReader(req.Data))
	if err != nil {
		return nil, &ingest.StructuralError{Err: err}
	}
	input, err := ingest.CrossRefInputFromSheet(sheets[0])
	if err != nil {
		return nil, err
	}

	result, err = ingest.Match(ctx, x.History, input, x.ChunkSize, req.Progress)
	if err != nil {
		return nil, err
	}
	m := result.Metrics
	logger.WithFields(utils.LogFields(ctx)).WithFields(logrus.Fields{
		"file":          req.FileName,
		"total":         m.Total,
		"by_case_code":  m.ByCaseCode,
		"by_document":   m.ByDocument,
		"matched_any":   m.MatchedEither,
		"unmatched_any": m.Unmatched,
	}).Info("cross reference completed")
	span.SetAttributes(attribute.Int("crossref.total", m.Total))
	return result, nil
}
