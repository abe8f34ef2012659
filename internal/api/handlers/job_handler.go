package handlers

import (
	"strconv"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"
	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	Jobs services.JobService
}

type JobPayload struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Route       *models.Route              `json:"route"`
	Load        *models.LoadDetails        `json:"loadDetails"`
	Vehicle     *models.VehicleRequirement `json:"vehicleRequirement"`
	Schedule    *models.Schedule           `json:"schedule"`
	Payment     *models.Payment            `json:"payment"`
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req JobPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	input := services.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Route != nil {
		input.Route = *req.Route
	}
	if req.Load != nil {
		input.Load = *req.Load
	}
	if req.Vehicle != nil {
		input.Vehicle = *req.Vehicle
	}
	if req.Schedule != nil {
		input.Schedule = *req.Schedule
	}
	if req.Payment != nil {
		input.Payment = *req.Payment
	}

	job, err := h.Jobs.Create(c.Request.Context(), userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	q := repository.JobQuery{
		Search:      c.Query("search"),
		City:        c.Query("city"),
		LoadType:    c.Query("loadType"),
		VehicleType: c.Query("vehicleType"),
		SortBy:      c.Query("sortBy"),
	}
	if v, err := strconv.ParseFloat(c.Query("minAmount"), 64); err == nil {
		q.MinAmount = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxAmount"), 64); err == nil {
		q.MaxAmount = &v
	}
	if v, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil {
		q.Page = v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		q.Limit = v
	}

	page, err := h.Jobs.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, page)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, job)
}

func (h *JobHandler) GetMyJobs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobs, err := h.Jobs.Mine(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, jobs)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       *string                    `json:"title"`
		Description *string                    `json:"description"`
		Route       *models.Route              `json:"route"`
		Load        *models.LoadDetails        `json:"loadDetails"`
		Vehicle     *models.VehicleRequirement `json:"vehicleRequirement"`
		Schedule    *models.Schedule           `json:"schedule"`
		Payment     *models.Payment            `json:"payment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	job, err := h.Jobs.Update(c.Request.Context(), jobID, userID, services.UpdateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Route:       req.Route,
		Load:        req.Load,
		Vehicle:     req.Vehicle,
		Schedule:    req.Schedule,
		Payment:     req.Payment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Jobs.Delete(c.Request.Context(), jobID, userID); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Job deleted")
}

func (h *JobHandler) CompleteJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.Complete(c.Request.Context(), jobID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, job)
}
