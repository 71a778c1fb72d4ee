package constants

// viper keys
const (
	ViperServerAddr            = "server.addr"
	ViperServerCORSOrigins     = "server.cors_origins"
	ViperServerShutdownTimeout = "server.shutdown_timeout"

	ViperLogLevel       = "log.level"
	ViperLogDevelopment = "log.development"

	ViperTablesPath = "tables.path"

	ViperGridSource         = "grid.source"
	ViperGridNetCDFPath     = "grid.netcdf_path"
	ViperGridVariable       = "grid.variable"
	ViperGridBoundariesPath = "grid.boundaries_path"

	ViperPostgresDSN            = "postgres.dsn"
	ViperPostgresConnectRetries = "postgres.connect_retries"

	ViperSessionTTL = "session.ttl"

	ViperEstimateCompostRate   = "estimate.compost_rate"
	ViperEstimateDrainageClass = "estimate.drainage_class"
	ViperEstimatePrefecture    = "estimate.prefecture"
)

const (
	EnvPrefix = "RICECH4"

	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"

	CtxKeyRequestID = "request_id"
	CtxKeyLang      = "lang"
)
