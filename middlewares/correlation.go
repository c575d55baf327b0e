package middlewares

import (
	"strings"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderCorrelationId = "X-Correlation-Id"
	HeaderUploadedBy    = "X-Uploaded-By"
)

// CorrelationMiddleware attaches a correlation id (from the request or a fresh uuid) and
// the uploading operator to the request context, and echoes the id back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(HeaderCorrelationId))
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		if user := strings.TrimSpace(c.GetHeader(HeaderUploadedBy)); user != "" {
			ctx = utils.SetUploadedByInContext(ctx, user)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderCorrelationId, cid)
		c.Next()
	}
}
