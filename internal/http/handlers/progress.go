package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/http/response"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progressService: progressService}
}

type stepUpdateRequest struct {
	StepIndex  *int     `json:"stepIndex" binding:"required,gte=0"`
	Status     string   `json:"status" binding:"required,oneof=not_started in_progress completed"`
	Notes      *string  `json:"notes" binding:"omitempty,max=2000"`
	HoursSpent *float64 `json:"hoursSpent" binding:"omitempty,gte=0"`
}

// PUT|POST /technologies/:slug/progress
func (ph *ProgressHandler) UpdateBySlug(c *gin.Context) {
	var req stepUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	in := services.StepUpdateInput{StepIndex: *req.StepIndex, Status: req.Status, Notes: req.Notes}
	if req.HoursSpent != nil {
		in.HoursSpent = *req.HoursSpent
	}
	view, err := ph.progressService.UpdateBySlug(c.Request.Context(), c.Param("slug"), in)
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /progress/:techId
func (ph *ProgressHandler) Get(c *gin.Context) {
	techID, err := services.ParseObjectID(c.Param("techId"), "invalid_technology_id")
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	view, err := ph.progressService.Get(c.Request.Context(), techID)
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /progress/:techId
func (ph *ProgressHandler) Start(c *gin.Context) {
	techID, err := services.ParseObjectID(c.Param("techId"), "invalid_technology_id")
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	view, err := ph.progressService.Start(c.Request.Context(), techID)
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	response.RespondOK(c, view)
}

type stepStatusRequest struct {
	Status string `json:"status" binding:"omitempty,oneof=not_started in_progress completed"`
}

// POST /progress/:techId/step/:stepId
// body is optional; status defaults to completed
func (ph *ProgressHandler) UpdateStep(c *gin.Context) {
	techID, err := services.ParseObjectID(c.Param("techId"), "invalid_technology_id")
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	stepID, err := services.ParseObjectID(c.Param("stepId"), "invalid_step_id")
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	var req stepStatusRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondBindError(c, err)
			return
		}
	}
	view, err := ph.progressService.UpdateStepByID(c.Request.Context(), techID, stepID, req.Status)
	if err != nil {
		response.RespondError(c, ph.log, err)
		return
	}
	response.RespondOK(c, view)
}
