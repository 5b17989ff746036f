package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/GregMSThompson/insights-backend/internal/config"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type mapSecrets map[string]string

func (m mapSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("missing secret " + name)
	}
	return v, nil
}

func TestInitProvidersBuildsEveryPlatform(t *testing.T) {
	cfg := &config.Config{SearchAdsTokenSecret: "dev-token", SocialAdsSecretName: "app-secret", ProviderRPS: 5}
	providers, err := InitProviders(context.Background(), cfg, mapSecrets{"dev-token": "d", "app-secret": "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []models.Platform{models.PlatformAnalytics, models.PlatformSearchAds, models.PlatformSocialAds} {
		if providers[p] == nil {
			t.Fatalf("missing provider for %s", p)
		}
	}
}

func TestInitProvidersSecretError(t *testing.T) {
	cfg := &config.Config{SearchAdsTokenSecret: "dev-token", SocialAdsSecretName: "app-secret", ProviderRPS: 5}
	if _, err := InitProviders(context.Background(), cfg, mapSecrets{"dev-token": "d"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
