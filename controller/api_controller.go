package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type APIController interface {
	Health(c *gin.Context)
	SyncUser(c *gin.Context)
	GetProfile(c *gin.Context)
	ListProficiencies(c *gin.Context)
	UpdateProficiency(c *gin.Context)
}

type apiController struct {
	syncService    service.SyncService
	profileService service.ProfileService
	config         config.Config
}

func NewAPIController(config config.Config, syncService service.SyncService, profileService service.ProfileService) APIController {
	return apiController{
		syncService:    syncService,
		profileService: profileService,
		config:         config,
	}
}

// RegisterRoutes attaches every handler of the controller to the router
func RegisterRoutes(router gin.IRouter, ctrl APIController) {
	router.GET("/health", ctrl.Health)

	users := router.Group("/users/:userId")
	{
		users.POST("/sync", ctrl.SyncUser)
		users.GET("/profile", ctrl.GetProfile)
		users.GET("/proficiencies", ctrl.ListProficiencies)
		users.PATCH("/proficiencies/:skill", ctrl.UpdateProficiency)
	}
}

func (s apiController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s apiController) SyncUser(c *gin.Context) {
	var req model.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, fmt.Errorf("%w: %s", model.ErrInvalidInput, err.Error()))
		return
	}

	result, err := s.syncService.SyncUser(c.Request.Context(), c.Param("userId"), req.Normalize())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s apiController) GetProfile(c *gin.Context) {
	profile, err := s.profileService.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s apiController) ListProficiencies(c *gin.Context) {
	records, err := s.profileService.ListProficiencies(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (s apiController) UpdateProficiency(c *gin.Context) {
	var req model.UpdateProficiencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, fmt.Errorf("%w: %s", model.ErrInvalidInput, err.Error()))
		return
	}

	record, err := s.profileService.UpdateProficiency(c.Request.Context(), c.Param("userId"), c.Param("skill"), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s apiController) abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}

	c.AbortWithStatusJSON(status, model.NewAPIError(err))
}

// StatusFor maps service errors to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrRateLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSyncInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
