package models

type Platform string

const (
	PlatformAnalytics Platform = "analytics"
	PlatformSearchAds Platform = "search_ads"
	PlatformSocialAds Platform = "social_ads"
	PlatformUpload    Platform = "upload"
)

// Connectable reports whether p is backed by a remote data provider.
func (p Platform) Connectable() bool {
	switch p {
	case PlatformAnalytics, PlatformSearchAds, PlatformSocialAds:
		return true
	}
	return false
}
