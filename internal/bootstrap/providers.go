package bootstrap

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	platformclient "github.com/GregMSThompson/insights-backend/internal/client/platform"
	"github.com/GregMSThompson/insights-backend/internal/config"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/services"
)

type secretReader interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// InitProviders builds one adapter per connectable platform. Each adapter gets
// its own limiter so a slow platform does not starve the others.
func InitProviders(ctx context.Context, cfg *config.Config, secrets secretReader) (map[models.Platform]services.Provider, error) {
	developerToken, err := secrets.GetSecret(ctx, cfg.SearchAdsTokenSecret)
	if err != nil {
		return nil, err
	}
	appSecret, err := secrets.GetSecret(ctx, cfg.SocialAdsSecretName)
	if err != nil {
		return nil, err
	}

	limiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cfg.ProviderRPS), int(cfg.ProviderRPS)+1)
	}
	return map[models.Platform]services.Provider{
		models.PlatformAnalytics: platformclient.NewAnalyticsAdapter(cfg.AnalyticsURL, limiter(), http.DefaultClient),
		models.PlatformSearchAds: platformclient.NewSearchAdsAdapter(cfg.SearchAdsURL, developerToken, limiter(), http.DefaultClient),
		models.PlatformSocialAds: platformclient.NewSocialAdsAdapter(cfg.SocialAdsURL, appSecret, limiter(), http.DefaultClient),
	}, nil
}
