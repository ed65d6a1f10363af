package config

import "time"

const (
	apiBaseURLVar = "API_BASE_URL"
	apiTimeoutVar = "API_TIMEOUT"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL is the root every backend resource path is joined to.
func (API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8000/api/")
}

func (API) GetAPITimeout() time.Duration {
	return GetEnvDuration(apiTimeoutVar, 15*time.Second)
}
