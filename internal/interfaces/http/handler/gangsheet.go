package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	gangsheetapp "github.com/printnest/backend/internal/application/gangsheet"
)

// GangsheetHandler handles gangsheet-related API endpoints
type GangsheetHandler struct {
	BaseHandler
	service *gangsheetapp.GangsheetService
}

// NewGangsheetHandler creates a new GangsheetHandler
func NewGangsheetHandler(service *gangsheetapp.GangsheetService) *GangsheetHandler {
	return &GangsheetHandler{
		service: service,
	}
}

// =============================================================================
// Job Endpoints
// =============================================================================

// CreateJob godoc
//
//	@ID				createGangsheetJob
//
//	@Summary		Create a gangsheet job
//	@Description	Create a gangsheet generation job for a set of orders and enqueue it for background processing
//	@Tags			gangsheets
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gangsheetapp.CreateJobRequest	true	"Job creation request"
//	@Success		201		{object}	APIResponse[gangsheetapp.JobResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Router			/gangsheets [post]
func (h *GangsheetHandler) CreateJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req gangsheetapp.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateJob(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListJobs godoc
//
//	@ID				listGangsheetJobs
//
//	@Summary		List gangsheet jobs
//	@Description	Retrieve a paginated list of gangsheet jobs, optionally filtered by status or name
//	@Tags			gangsheets
//	@Produce		json
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			page_size	query		int		false	"Page size"			default(20)
//	@Param			status		query		string	false	"Job status filter"
//	@Param			name		query		string	false	"Name substring filter"
//	@Success		200			{object}	APIResponse[[]gangsheetapp.JobResponse]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Failure		500			{object}	dto.ErrorResponse
//	@Router			/gangsheets [get]
func (h *GangsheetHandler) ListJobs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	req := gangsheetapp.ListJobsRequest{
		Page:     1,
		PageSize: 20,
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListJobs(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Size)
}

// GetJobStats godoc
//
//	@ID				getGangsheetJobStats
//
//	@Summary		Get job statistics
//	@Description	Retrieve per-status gangsheet job counts for the tenant
//	@Tags			gangsheets
//	@Produce		json
//	@Success		200	{object}	APIResponse[gangsheetapp.JobStatsResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Router			/gangsheets/stats [get]
func (h *GangsheetHandler) GetJobStats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.service.GetJobStats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetJob godoc
//
//	@ID				getGangsheetJob
//
//	@Summary		Get gangsheet job by ID
//	@Description	Retrieve a gangsheet job with its packed roll layout
//	@Tags			gangsheets
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[gangsheetapp.JobResponse]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Router			/gangsheets/{id} [get]
func (h *GangsheetHandler) GetJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	result, err := h.service.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelJob godoc
//
//	@ID				cancelGangsheetJob
//
//	@Summary		Cancel a gangsheet job
//	@Description	Cancel a pending job, or request interruption of a processing job
//	@Tags			gangsheets
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[gangsheetapp.JobResponse]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Router			/gangsheets/{id}/cancel [post]
func (h *GangsheetHandler) CancelJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	result, err := h.service.CancelJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// =============================================================================
// Preview Endpoint
// =============================================================================

// PreviewPack godoc
//
//	@ID				previewGangsheetPack
//
//	@Summary		Preview a packing layout
//	@Description	Compute the roll layout for a set of line items without creating a job
//	@Tags			gangsheets
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gangsheetapp.PreviewPackRequest	true	"Preview request"
//	@Success		200		{object}	APIResponse[gangsheetapp.PreviewPackResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Router			/gangsheets/preview [post]
func (h *GangsheetHandler) PreviewPack(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req gangsheetapp.PreviewPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PreviewPack(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// =============================================================================
// Artifact Endpoints
// =============================================================================

// DownloadArtifact godoc
//
//	@ID				downloadGangsheetArtifact
//
//	@Summary		Download job artifact
//	@Description	Download the zip archive for a completed gangsheet job
//	@Tags			gangsheets
//	@Produce		application/zip
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{file}		binary	"Zip archive"
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Router			/gangsheets/{id}/download [get]
func (h *GangsheetHandler) DownloadArtifact(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	artifact, err := h.service.DownloadArtifact(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+artifact.FileName+"\"")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// GetArtifactLink godoc
//
//	@ID				getGangsheetArtifactLink
//
//	@Summary		Get a signed artifact link
//	@Description	Generate a time-limited download URL for a completed job artifact
//	@Tags			gangsheets
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[gangsheetapp.ArtifactLinkResponse]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse
//	@Failure		501	{object}	dto.ErrorResponse
//	@Router			/gangsheets/{id}/link [get]
func (h *GangsheetHandler) GetArtifactLink(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	result, err := h.service.GetArtifactLink(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// =============================================================================
// Roll Settings Endpoints
// =============================================================================

// GetRollSettings godoc
//
//	@ID				getGangsheetRollSettings
//
//	@Summary		Get roll settings
//	@Description	Retrieve the tenant's roll settings, falling back to defaults when none are stored
//	@Tags			roll-settings
//	@Produce		json
//	@Success		200	{object}	APIResponse[gangsheetapp.RollSettingsResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Router			/roll-settings [get]
func (h *GangsheetHandler) GetRollSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.service.GetRollSettings(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateRollSettings godoc
//
//	@ID				updateGangsheetRollSettings
//
//	@Summary		Update roll settings
//	@Description	Replace the tenant's roll settings
//	@Tags			roll-settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gangsheetapp.UpdateRollSettingsRequest	true	"Settings update request"
//	@Success		200		{object}	APIResponse[gangsheetapp.RollSettingsResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Router			/roll-settings [put]
func (h *GangsheetHandler) UpdateRollSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req gangsheetapp.UpdateRollSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateRollSettings(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
