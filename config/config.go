package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

/* ---------------------------------  Gateway Config Struct -------------------------------- */

// GatewayConfig is the top level struct that contains configuration details
// that are parsed from a YAML config file. It contains all the various
// configuration details needed to operate the gateway.
type GatewayConfig struct {
	Logger    LoggerConfig    `yaml:"logger_config"`
	Router    RouterConfig    `yaml:"router_config"`
	Auth      AuthConfig      `yaml:"auth_config"`
	Policy    PolicyConfig    `yaml:"policy_config"`
	RateLimit RateLimitConfig `yaml:"rate_limit_config"`
	Redis     RedisConfig     `yaml:"redis_config"`
}

// LoadGatewayConfigFromYAML reads a YAML configuration file from the
// specified path and unmarshals its content into a GatewayConfig instance.
func LoadGatewayConfigFromYAML(path string) (GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GatewayConfig{}, err
	}

	var config GatewayConfig
	if err = yaml.Unmarshal(data, &config); err != nil {
		return GatewayConfig{}, err
	}

	// hydrate required fields and set defaults for optional fields
	config.Logger.hydrateLoggerDefaults()
	config.Router.hydrateRouterDefaults()
	config.Auth.hydrateAuthDefaults()
	config.Policy.hydratePolicyDefaults()
	config.RateLimit.hydrateRateLimitDefaults()
	config.Redis.hydrateRedisDefaults()

	return config, config.validate()
}

func (c GatewayConfig) validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	return c.RateLimit.Validate()
}
