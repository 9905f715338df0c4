// Package httpapi exposes the recommendation service over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Skufu/mealguard/internal/catalog"
	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/model"
	"github.com/Skufu/mealguard/internal/recommend"
)

const maxBodyBytes = 1 << 20

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CatalogStatus reports the catalog snapshot without loading it.
type CatalogStatus interface {
	Status() catalog.Status
}

// Recommender is the slice of recommend.Service the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, patientID string, topN int) (*recommend.Result, error)
	InterpretLabs(ctx context.Context, gender model.Gender, values map[string]float64) (*recommend.LabReport, error)
	CheckMedicines(ctx context.Context, names []string) (*recommend.MedicineReport, error)
	ListPlans(ctx context.Context, condition string) ([]model.MealPlan, error)
	LabRules(ctx context.Context) ([]model.LabRule, error)
}

// NewRouter wires middleware, health checks and API routes. db may be nil when the
// server runs without Postgres.
func NewRouter(db HealthChecker, cat CatalogStatus, svc Recommender) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(logging.Logger(logging.SourceWebRequest)),
		gin.Recovery(),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readyz(db, cat))

	h := &handlers{svc: svc}
	api := router.Group("/api")
	api.GET("/patients/:patientId/recommendations", h.recommendations)
	api.POST("/labs/interpret", h.interpretLabs)
	api.POST("/medicines/interactions", h.medicineInteractions)
	api.GET("/meal-plans", h.mealPlans)
	api.GET("/lab-rules", h.labRules)

	return router
}

func readyz(db HealthChecker, cat CatalogStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "db": "disabled"}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			body["db"] = "ok"
			if err := db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["db"] = fmt.Sprintf("unhealthy: %v", err)
			}
		}

		if cat != nil {
			st := cat.Status()
			body["catalog"] = st
			if !st.Loaded || st.Expired {
				status = http.StatusServiceUnavailable
			}
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}

const requestIDHeader = "X-Request-ID"

// requestLogger replaces gin.Logger with one line per request in the shared
// logfmt format.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "err", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", kv...)
		default:
			logger.Info("request", kv...)
		}
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
