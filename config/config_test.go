package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, yamlData string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))
	return path
}

func TestLoadGatewayConfigFromYAML(t *testing.T) {
	tests := []struct {
		name     string
		yamlData string
		wantErr  bool
		check    func(c *require.Assertions, got GatewayConfig)
	}{
		{
			name: "should load a full config and apply defaults",
			yamlData: `
logger_config:
  level: debug
router_config:
  port: 8080
auth_config:
  issuer: https://auth.example.com
  audience: platform-gateway
  hmac_secret: dev-secret
policy_config:
  evaluate_url: http://policy:9000/evaluate
rate_limit_config:
  limit: 100
  window: 30s
redis_config:
  addr: redis:6379
`,
			check: func(c *require.Assertions, got GatewayConfig) {
				c.Equal("debug", got.Logger.Level)
				c.Equal(8080, got.Router.Port)
				c.Equal("https://auth.example.com", got.Auth.Issuer)
				c.Equal(defaultRevocationTimeout, got.Auth.RevocationTimeout)
				c.Equal("http://policy:9000/evaluate", got.Policy.EvaluateURL)
				c.Equal(defaultPolicyRequestTimeout, got.Policy.RequestTimeout)
				c.Equal(defaultDecisionCacheTTL, got.Policy.DecisionCacheTTL)
				c.Equal(int64(100), got.RateLimit.Limit)
				c.Equal(30*time.Second, got.RateLimit.Window)
				c.Equal("redis:6379", got.Redis.Addr)
			},
		},
		{
			name: "should fill every unset section with defaults",
			yamlData: `
auth_config:
  hmac_secret: dev-secret
policy_config:
  evaluate_url: http://policy:9000/evaluate
`,
			check: func(c *require.Assertions, got GatewayConfig) {
				c.Equal(defaultLogLevel, got.Logger.Level)
				c.Equal(defaultPort, got.Router.Port)
				c.Equal(int64(defaultRateLimit), got.RateLimit.Limit)
				c.Equal(defaultRateLimitWindow, got.RateLimit.Window)
				c.Equal(defaultRedisAddr, got.Redis.Addr)
			},
		},
		{
			name: "should fail without a token validation method",
			yamlData: `
policy_config:
  evaluate_url: http://policy:9000/evaluate
`,
			wantErr: true,
		},
		{
			name: "should fail without a policy engine endpoint",
			yamlData: `
auth_config:
  hmac_secret: dev-secret
`,
			wantErr: true,
		},
		{
			name: "should fail on an invalid log level",
			yamlData: `
logger_config:
  level: verbose
auth_config:
  hmac_secret: dev-secret
policy_config:
  evaluate_url: http://policy:9000/evaluate
`,
			wantErr: true,
		},
		{
			name: "should fail on a sub-second rate limit window",
			yamlData: `
auth_config:
  hmac_secret: dev-secret
policy_config:
  evaluate_url: http://policy:9000/evaluate
rate_limit_config:
  window: 500ms
`,
			wantErr: true,
		},
		{
			name:     "should fail on invalid YAML",
			yamlData: `{not yaml`,
			wantErr:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			got, err := LoadGatewayConfigFromYAML(writeConfigFile(t, test.yamlData))
			if test.wantErr {
				c.Error(err)
				return
			}
			c.NoError(err)
			test.check(c, got)
		})
	}
}

func TestLoadGatewayConfigFromYAML_MissingFile(t *testing.T) {
	c := require.New(t)

	_, err := LoadGatewayConfigFromYAML(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	c.Error(err)
}
