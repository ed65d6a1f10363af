package config

const (
	sessionFileVar       = "SESSION_FILE"
	sessionPassphraseVar = "SESSION_PASSPHRASE"
	validateOnRestoreVar = "SESSION_VALIDATE_ON_RESTORE"
	checkTokenExpiryVar  = "SESSION_CHECK_TOKEN_EXPIRY"
	loginRouteVar        = "LOGIN_ROUTE"
	guardFallbackVar     = "GUARD_FALLBACK_ROUTE"
)

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionFile is empty unless set; callers then use the per-user
// default location.
func (Session) GetSessionFile() string {
	return GetEnv(sessionFileVar, "")
}

func (Session) GetSessionPassphrase() string {
	return GetEnv(sessionPassphraseVar, "")
}

func (Session) GetValidateOnRestore() bool {
	return GetEnvBool(validateOnRestoreVar, false)
}

func (Session) GetCheckTokenExpiry() bool {
	return GetEnvBool(checkTokenExpiryVar, true)
}

func (Session) GetLoginRoute() string {
	return GetEnv(loginRouteVar, "/login")
}

func (Session) GetGuardFallbackRoute() string {
	return GetEnv(guardFallbackVar, "/")
}
