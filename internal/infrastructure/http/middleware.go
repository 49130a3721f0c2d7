package http

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"

	sessionKey = "session"
)

// Recovery turns panics into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
					Error:   &ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)},
				})
			}
		}()
		c.Next()
	}
}

// RequestID reuses or generates the X-Request-ID of a request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Logging logs one line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Metrics records request counts and latencies by route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CORS allows the given origins. An empty list allows all.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// Trace starts a server span per request.
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceContext copies the trace ID into the logger context and the response.
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			traceID := span.SpanContext().TraceID().String()
			c.Set("trace_id", traceID)
			c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID))
			c.Header("X-Trace-ID", traceID)
		}
		c.Next()
	}
}

// Sessions loads the session named by the cookie, creating one when the
// cookie is missing or stale, and saves it after the handler ran.
func Sessions(store ports.SessionStore, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var sess *entities.Session
		if id, err := c.Cookie(cookieName); err == nil && id != "" {
			sess, err = store.Get(ctx, id)
			if err != nil && !errors.Is(err, ports.ErrSessionNotFound) {
				logger.Error(ctx, "loading session failed", err)
			}
		}
		if sess == nil {
			sess = entities.NewSession(uuid.New().String())
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, sess.ID, 0, "/", "", false, true)

		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.SessionIDKey, sess.ID))

		c.Next()

		sess.UpdatedAt = time.Now()
		if err := store.Save(c.Request.Context(), sess); err != nil {
			logger.Error(c.Request.Context(), "saving session failed", err)
		}
	}
}

// sessionFrom returns the session installed by Sessions.
func sessionFrom(c *gin.Context) *entities.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return entities.NewSession(uuid.New().String())
	}
	return v.(*entities.Session)
}
