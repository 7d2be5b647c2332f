package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
)

type ClassHandler struct {
	BaseHandler
	classService      services.ClassService
	instructorService services.InstructorService
}

func NewClassHandler(classService services.ClassService, instructorService services.InstructorService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:       NewBaseHandler(logger),
		classService:      classService,
		instructorService: instructorService,
	}
}

// ListClasses returns all classes, optionally filtered by ?status=
func (h *ClassHandler) ListClasses(c *gin.Context) {
	var status *models.ClassStatus
	if s := c.Query("status"); s != "" {
		st := models.ClassStatus(s)
		status = &st
	}

	classes, err := h.classService.List(c.Request.Context(), status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *ClassHandler) GetClass(c *gin.Context) {
	class, err := h.classService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req services.CreateClassRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.classService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Updating class", "course_id", id)

	var req services.UpdateClassRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.classService.UpdateDetails(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStatus and UpdateFeedback only need a valid token
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	h.logCaller(c, "Updating class status")

	var req services.StatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.classService.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ClassHandler) UpdateFeedback(c *gin.Context) {
	h.logCaller(c, "Updating class feedback")

	var req services.FeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.classService.UpdateFeedback(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ClassHandler) ListInstructors(c *gin.Context) {
	instructors, err := h.instructorService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, instructors)
}

func (h *ClassHandler) logCaller(c *gin.Context, msg string) {
	args := []any{"course_id", c.Param("id")}
	if p, ok := PrincipalFrom(c); ok {
		args = append(args, "by", p.Email)
	}
	h.LogRequest(c, msg, args...)
}
