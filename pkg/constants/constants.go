package constants

const (
	AppName = "thera"

	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "THERA"
)
