package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID   string
	Region      string
	LogLevel    string
	Port        string
	KMSKeyName  string
	VertexModel string
	Bucket      string

	// Secret Manager names holding the platform app credentials.
	SearchAdsTokenSecret string
	SocialAdsSecretName  string

	// Provider base URLs; empty means the public endpoint.
	AnalyticsURL string
	SearchAdsURL string
	SocialAdsURL string
	ProviderRPS  float64

	SchedulerEnabled bool
	SchedulerPoll    time.Duration
	SchedulerWorkers int
	SchedulerBatch   int
	SchedulerLease   time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:   os.Getenv("PROJECTID"),
		Region:      os.Getenv("REGION"),
		LogLevel:    os.Getenv("LOGLEVEL"),
		Port:        getString("PORT", "8080"),
		KMSKeyName:  os.Getenv("KMSKEYNAME"),
		VertexModel: os.Getenv("VERTEXMODEL"),
		Bucket:      os.Getenv("BUCKET"),

		SearchAdsTokenSecret: os.Getenv("SEARCHADSTOKENSECRET"),
		SocialAdsSecretName:  os.Getenv("SOCIALADSSECRET"),

		AnalyticsURL: os.Getenv("ANALYTICSURL"),
		SearchAdsURL: os.Getenv("SEARCHADSURL"),
		SocialAdsURL: os.Getenv("SOCIALADSURL"),
		ProviderRPS:  getFloat("PROVIDERRPS", 5),

		SchedulerEnabled: getBool("SCHEDULERENABLED", true),
		SchedulerPoll:    getDuration("SCHEDULERPOLL", time.Minute),
		SchedulerWorkers: getInt("SCHEDULERWORKERS", 4),
		SchedulerBatch:   getInt("SCHEDULERBATCH", 10),
		SchedulerLease:   getDuration("SCHEDULERLEASE", 10*time.Minute),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
