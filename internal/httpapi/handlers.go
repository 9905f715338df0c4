package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/mealguard/internal/model"
	"github.com/Skufu/mealguard/internal/recommend"
)

const maxTopN = 50

type handlers struct {
	svc Recommender
}

type interpretLabsRequest struct {
	Gender  string             `json:"gender"`
	Results map[string]float64 `json:"results" binding:"required"`
}

type medicinesRequest struct {
	Medicines []string `json:"medicines" binding:"required"`
}

func (h *handlers) recommendations(c *gin.Context) {
	topN := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopN {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be an integer between 1 and 50"})
			return
		}
		topN = n
	}

	res, err := h.svc.Recommend(c.Request.Context(), c.Param("patientId"), topN)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) interpretLabs(c *gin.Context) {
	var req interpretLabsRequest
	if !bindJSON(c, &req) {
		return
	}
	rep, err := h.svc.InterpretLabs(c.Request.Context(), model.ParseGender(req.Gender), req.Results)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *handlers) medicineInteractions(c *gin.Context) {
	var req medicinesRequest
	if !bindJSON(c, &req) {
		return
	}
	rep, err := h.svc.CheckMedicines(c.Request.Context(), req.Medicines)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *handlers) mealPlans(c *gin.Context) {
	plans, err := h.svc.ListPlans(c.Request.Context(), c.Query("condition"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

func (h *handlers) labRules(c *gin.Context) {
	rules, err := h.svc.LabRules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	return false
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidPatientID),
		errors.Is(err, recommend.ErrInvalidCondition),
		errors.Is(err, recommend.ErrNoInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, recommend.ErrCatalogUnavailable),
		errors.Is(err, recommend.ErrFetchProfile),
		errors.Is(err, recommend.ErrFetchLabs):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
