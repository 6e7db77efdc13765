package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TIMECLOCK_DB_DSN"
	EnvDBHost = "TIMECLOCK_DB_HOST"
	EnvDBUser = "TIMECLOCK_DB_USER"
	EnvDBName = "TIMECLOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
