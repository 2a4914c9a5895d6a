package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/http/response"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

type TechnologyHandler struct {
	log               *logger.Logger
	technologyService services.TechnologyService
}

func NewTechnologyHandler(log *logger.Logger, technologyService services.TechnologyService) *TechnologyHandler {
	return &TechnologyHandler{log: log.With("handler", "TechnologyHandler"), technologyService: technologyService}
}

// GET /technologies?fieldId=&category=&search=&limit=
func (th *TechnologyHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := th.technologyService.List(c.Request.Context(), repos.TechnologyListFilter{
		FieldID:  c.Query("fieldId"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    limit,
	})
	if err != nil {
		response.RespondError(c, th.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /technologies/trending?limit=
func (th *TechnologyHandler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := th.technologyService.Trending(c.Request.Context(), limit)
	if err != nil {
		response.RespondError(c, th.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /technologies/:slug
func (th *TechnologyHandler) GetBySlug(c *gin.Context) {
	t, err := th.technologyService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondError(c, th.log, err)
		return
	}
	response.RespondOK(c, t)
}

// GET /technologies/:slug/stats
func (th *TechnologyHandler) Stats(c *gin.Context) {
	stats, err := th.technologyService.Stats(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondError(c, th.log, err)
		return
	}
	response.RespondOK(c, stats)
}

type createTechnologyRequest struct {
	Name             string   `json:"name" binding:"required,max=100"`
	FieldID          string   `json:"fieldId"`
	Sector           string   `json:"sector" binding:"omitempty,max=100"`
	ShortDescription string   `json:"shortDescription" binding:"omitempty,max=300"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags" binding:"omitempty,max=20"`
	Prerequisites    []string `json:"prerequisites" binding:"omitempty,max=20"`
	Icon             string   `json:"icon"`
	Color            string   `json:"color" binding:"omitempty,hexcolor"`
	IsTrending       bool     `json:"isTrending"`
}

// POST /technologies
func (th *TechnologyHandler) Create(c *gin.Context) {
	var req createTechnologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	t, err := th.technologyService.Create(c.Request.Context(), services.CreateTechnologyInput{
		Name:             req.Name,
		FieldID:          req.FieldID,
		Sector:           req.Sector,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Difficulty:       req.Difficulty,
		Tags:             req.Tags,
		Prerequisites:    req.Prerequisites,
		Icon:             req.Icon,
		Color:            req.Color,
		IsTrending:       req.IsTrending,
	})
	if err != nil {
		response.RespondError(c, th.log, err)
		return
	}
	response.RespondCreated(c, t)
}
