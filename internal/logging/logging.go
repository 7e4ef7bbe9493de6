package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ContextKey is where Middleware stores the request logger on the gin context
const ContextKey = "log"

// New creates the service logger. format is "text" or "json".
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stdout, level, format)
}

// NewWithOutput is New writing to out
func NewWithOutput(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	log := logrus.New()
	log.Out = out
	log.Level = lvl
	switch format {
	case "", "text":
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	return log, nil
}

// Middleware attaches a request-scoped logger and logs each request once it
// has been served
func Middleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
			"http.req.id":     uuid.NewString(),
		})
		c.Set(ContextKey, reqLog)

		c.Next()

		entry := reqLog.WithFields(logrus.Fields{
			"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request complete")
		case status >= 400:
			entry.Warn("request complete")
		default:
			entry.Debug("request complete")
		}
	}
}

// FromContext returns the request logger, or the standard logger outside a
// request
func FromContext(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(ContextKey); ok {
		if log, ok := v.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}
