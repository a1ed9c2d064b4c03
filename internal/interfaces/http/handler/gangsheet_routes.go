package handler

import (
	"github.com/printnest/backend/internal/interfaces/http/router"
)

// GangsheetRoutes creates the route group for gangsheet endpoints
func GangsheetRoutes(handler *GangsheetHandler) *router.DomainGroup {
	group := router.NewDomainGroup("gangsheets", "/gangsheets")

	// Jobs
	group.POST("", handler.CreateJob)
	group.GET("", handler.ListJobs)
	group.GET("/stats", handler.GetJobStats)
	group.GET("/:id", handler.GetJob)
	group.POST("/:id/cancel", handler.CancelJob)

	// Layout preview
	group.POST("/preview", handler.PreviewPack)

	// Artifacts
	group.GET("/:id/download", handler.DownloadArtifact)
	group.GET("/:id/link", handler.GetArtifactLink)

	return group
}

// RollSettingsRoutes creates the route group for roll settings endpoints
func RollSettingsRoutes(handler *GangsheetHandler) *router.DomainGroup {
	group := router.NewDomainGroup("roll-settings", "/roll-settings")

	group.GET("", handler.GetRollSettings)
	group.PUT("", handler.UpdateRollSettings)

	return group
}
