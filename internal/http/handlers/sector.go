package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/http/response"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

type SectorHandler struct {
	log           *logger.Logger
	sectorService services.SectorService
}

func NewSectorHandler(log *logger.Logger, sectorService services.SectorService) *SectorHandler {
	return &SectorHandler{log: log.With("handler", "SectorHandler"), sectorService: sectorService}
}

// GET /fields
func (sh *SectorHandler) List(c *gin.Context) {
	out, err := sh.sectorService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /fields/:id
func (sh *SectorHandler) Get(c *gin.Context) {
	out, err := sh.sectorService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, out)
}
