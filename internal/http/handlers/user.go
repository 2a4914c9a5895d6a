package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/http/response"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

const maxAvatarUploadBytes = 10 << 20

type UserHandler struct {
	log              *logger.Logger
	userService      services.UserService
	favouriteService services.FavouriteService
}

func NewUserHandler(log *logger.Logger, userService services.UserService, favouriteService services.FavouriteService) *UserHandler {
	return &UserHandler{
		log:              log.With("handler", "UserHandler"),
		userService:      userService,
		favouriteService: favouriteService,
	}
}

// GET /users/profile
func (uh *UserHandler) GetProfile(c *gin.Context) {
	u, err := uh.userService.GetProfile(c.Request.Context())
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, u)
}

type updateProfileRequest struct {
	Name            *string   `json:"name" binding:"omitempty,max=100"`
	Username        *string   `json:"username" binding:"omitempty,max=50"`
	Bio             *string   `json:"bio" binding:"omitempty,max=500"`
	Avatar          *string   `json:"avatar"`
	ExperienceLevel *string   `json:"experienceLevel"`
	Interests       *[]string `json:"interests" binding:"omitempty,max=20"`
}

// PUT /users/profile
func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	u, err := uh.userService.UpdateProfile(c.Request.Context(), services.ProfileUpdateInput{
		Name:            req.Name,
		Username:        req.Username,
		Bio:             req.Bio,
		Avatar:          req.Avatar,
		ExperienceLevel: req.ExperienceLevel,
		Interests:       req.Interests,
	})
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, u)
}

// POST /users/profile/avatar
// multipart form with a "file" part
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondStatus(c, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondStatus(c, http.StatusBadRequest, "read_file_failed", "could not open upload")
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxAvatarUploadBytes+1))
	if err != nil {
		response.RespondStatus(c, http.StatusBadRequest, "read_file_failed", "could not read upload")
		return
	}
	if len(raw) > maxAvatarUploadBytes {
		response.RespondStatus(c, http.StatusRequestEntityTooLarge, "avatar_too_large", "avatar must be 10MB or smaller")
		return
	}
	u, err := uh.userService.UploadAvatarImage(c.Request.Context(), raw)
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, u)
}

// GET /users/dashboard
func (uh *UserHandler) Dashboard(c *gin.Context) {
	d, err := uh.userService.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /users/activity?limit=
func (uh *UserHandler) Activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := uh.userService.Activity(c.Request.Context(), limit)
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, events)
}

// GET /users/favourites
func (uh *UserHandler) ListFavourites(c *gin.Context) {
	out, err := uh.favouriteService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /users/favourites/:techId
func (uh *UserHandler) AddFavourite(c *gin.Context) {
	techID, err := services.ParseObjectID(c.Param("techId"), "invalid_technology_id")
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	if err := uh.favouriteService.Add(c.Request.Context(), techID); err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "added to favourites")
}

// DELETE /users/favourites/:techId
func (uh *UserHandler) RemoveFavourite(c *gin.Context) {
	techID, err := services.ParseObjectID(c.Param("techId"), "invalid_technology_id")
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	if err := uh.favouriteService.Remove(c.Request.Context(), techID); err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "removed from favourites")
}
