package common

// Environment variable names for configuration.
const (
	// ChannelNameEnv overrides the trigger channel name.
	ChannelNameEnv = "KEYSENDER_CHANNEL"

	// ConfigDirEnv overrides the directory holding options.json and history.db.
	ConfigDirEnv = "KEYSENDER_CONFIG_DIR"

	// DebugEnv enables debug logging of channel traffic.
	DebugEnv = "KEYSENDER_DEBUG"
)
