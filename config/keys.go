package config

const (
	delimiter = "_"

	EnvPrefix = "COMPOSABLE" + delimiter

	EnvSchedulerPrefix     = EnvPrefix + "SCHEDULER" + delimiter
	EnvSchedulerBufferSize = EnvSchedulerPrefix + "BUFFER_SIZE"
	EnvSchedulerNumWorkers = EnvSchedulerPrefix + "NUM_WORKERS"

	EnvLogPrefix = EnvPrefix + "LOG" + delimiter
	EnvLogLevel  = EnvLogPrefix + "LEVEL"

	EnvTracingPrefix  = EnvPrefix + "TRACING" + delimiter
	EnvTracingEnabled = EnvTracingPrefix + "ENABLED"

	EnvStorePrefix        = EnvPrefix + "STORE" + delimiter
	EnvStoreRecordActions = EnvStorePrefix + "RECORD_ACTIONS"
)
