package config

const (
	EnvPrefix = "GYMDESK"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "GYMDESK_APP_ENV"
	EnvPort     = "GYMDESK_APP_PORT"
	EnvDBDSN    = "GYMDESK_DB_DSN"
	EnvDBHost   = "GYMDESK_DB_HOST"
	EnvDBUser   = "GYMDESK_DB_USER"
	EnvDBName   = "GYMDESK_DB_NAME"
	EnvRedisURL = "GYMDESK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
