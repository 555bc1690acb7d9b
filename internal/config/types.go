package config

// Config holds all savingctl configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network" mapstructure:"default_network"`
	DefaultWallet  string              `json:"default_wallet"  mapstructure:"default_wallet"`
	LogLevel       string              `json:"log_level"       mapstructure:"log_level"`  // debug | info | warn | error
	LogFormat      string              `json:"log_format"      mapstructure:"log_format"` // text | json
	ProtocolFile   string              `json:"protocol_file"   mapstructure:"protocol_file"`
	ArtifactsDir   string              `json:"artifacts_dir"   mapstructure:"artifacts_dir"`
	DeploymentsDir string              `json:"deployments_dir" mapstructure:"deployments_dir"`
	ABIDir         string              `json:"abi_dir"         mapstructure:"abi_dir"`
	MetadataDir    string              `json:"metadata_dir"    mapstructure:"metadata_dir"`
	WatchInterval  int                 `json:"watch_interval"  mapstructure:"watch_interval"` // seconds
	CustomRPCs     map[string][]string `json:"custom_rpcs"     mapstructure:"custom_rpcs"`

	// internal: config dir path used for Save()
	configDir string
}
