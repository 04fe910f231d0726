package config

/* --------------------------------- Redis Config Defaults -------------------------------- */

const defaultRedisAddr = "localhost:6379"

/* --------------------------------- Redis Config Struct -------------------------------- */

// RedisConfig locates the redis instance shared across all gateway
// instances, holding the rate-limit counters and the revocation set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

/* --------------------------------- Redis Config Private Helpers -------------------------------- */

func (c *RedisConfig) hydrateRedisDefaults() {
	if c.Addr == "" {
		c.Addr = defaultRedisAddr
	}
}
