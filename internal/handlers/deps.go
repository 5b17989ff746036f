package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/insights-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	UploadSvc       uploadService
	AnalysisSvc     analysisService
	IntegrationSvc  integrationService
	ScheduleSvc     scheduleService
	UnifiedSvc      unifiedService
}
