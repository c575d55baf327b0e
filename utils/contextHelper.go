package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/collections_backend/appctx"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRunId         = appctx.ContextKeyRunId
	ContextKeyModule        = appctx.ContextKeyModule
	ContextKeyUploadedBy    = appctx.ContextKeyUploadedBy
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// EnsureCorrelationId returns ctx unchanged when it already carries a correlation id,
// otherwise it stores a fresh uuid.
func EnsureCorrelationId(ctx context.Context) (context.Context, string) {
	if id, ok := GetCorrelationIdFromContext(ctx); ok && id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return SetCorrelationIdInContext(ctx, id), id
}

func GetRunIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRunId)
}

func SetRunIdInContext(ctx context.Context, runId string) context.Context {
	return appctx.Set(ctx, ContextKeyRunId, runId)
}

func GetModuleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyModule)
}

func SetModuleInContext(ctx context.Context, module string) context.Context {
	return appctx.Set(ctx, ContextKeyModule, module)
}

func GetUploadedByFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUploadedBy)
}

func SetUploadedByInContext(ctx context.Context, user string) context.Context {
	return appctx.Set(ctx, ContextKeyUploadedBy, user)
}

// LogFields collects the request-scoped values of ctx for structured logging.
func LogFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if v, ok := GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = v
	}
	if v, ok := GetRunIdFromContext(ctx); ok {
		fields["run_id"] = v
	}
	if v, ok := GetModuleFromContext(ctx); ok {
		fields["ingest_module"] = v
	}
	if v, ok := GetUploadedByFromContext(ctx); ok {
		fields["uploaded_by"] = v
	}
	return fields
}
