package config

// NotifyConfig selects the notifx provider used by the notify command.
type NotifyConfig struct {
	Provider    string `yaml:"provider"` // mandrill | ses | console
	FromAddress string `yaml:"from_address"`
	AWSRegion   string `yaml:"aws_region"`
}

func loadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Provider:    getEnv("NOTIFX_PROVIDER", ""),
		FromAddress: getEnv("NOTIFX_FROM_ADDRESS", getEnv("EMAIL_FROM_ADDRESS", "")),
		AWSRegion:   getEnv("NOTIFX_AWS_REGION", ""),
	}
}
