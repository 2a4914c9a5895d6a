package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/http/response"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

type registerRequest struct {
	Name            string   `json:"name" binding:"required,max=100"`
	Username        string   `json:"username" binding:"omitempty,max=50"`
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required,min=6,max=128"`
	Interests       []string `json:"interests" binding:"omitempty,max=20,dive,max=50"`
	ExperienceLevel string   `json:"experienceLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
}

// POST /auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	res, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		Interests:       req.Interests,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondCreated(c, res)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"token":      res.Token,
		"user":       res.User,
		"expires_in": int(ah.authService.GetAccessTTL().Seconds()),
	})
}

// GET /auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	u, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondOK(c, u)
}
