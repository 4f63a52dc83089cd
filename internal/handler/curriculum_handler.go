package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika/obe-api/internal/service"
	"github.com/akademika/obe-api/pkg/response"
)

// CurriculumHandler exposes the outcome taxonomy catalog.
type CurriculumHandler struct {
	service *service.CurriculumService
}

// NewCurriculumHandler constructs a curriculum handler.
func NewCurriculumHandler(svc *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// ListCPL godoc
// @Summary List program learning outcomes
// @Description List every CPL with its indicator count, ascending by code
// @Tags Curriculum
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curriculum/cpl [get]
func (h *CurriculumHandler) ListCPL(c *gin.Context) {
	cpls, err := h.service.ListCPL(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cpls, nil)
}

// ListCourses godoc
// @Summary List courses
// @Tags Curriculum
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curriculum/courses [get]
func (h *CurriculumHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListIK godoc
// @Summary List indicators under a CPL
// @Tags Curriculum
// @Produce json
// @Param id path string true "CPL ID"
// @Success 200 {object} response.Envelope
// @Router /curriculum/cpl/{id}/ik [get]
func (h *CurriculumHandler) ListIK(c *gin.Context) {
	iks, err := h.service.ListIK(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iks, nil)
}
