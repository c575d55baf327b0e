package middlewares

import (
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs the errors handlers attached with c.Error, once per request.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.WithFields(utils.LogFields(c.Request.Context())).WithFields(logrus.Fields{
				"path":   c.FullPath(),
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}
