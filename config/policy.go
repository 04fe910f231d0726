package config

import (
	"fmt"
	"time"
)

/* --------------------------------- Policy Config Defaults -------------------------------- */

const (
	// defaultPolicyRequestTimeout bounds one policy engine evaluation.
	// The policy gate fails closed when it elapses.
	defaultPolicyRequestTimeout = 2 * time.Second

	// defaultDecisionCacheTTL bounds decision staleness. Cached decisions
	// are not invalidated when permissions change upstream; lowering the
	// TTL tightens security at the cost of policy engine load.
	defaultDecisionCacheTTL = 30 * time.Second
)

/* --------------------------------- Policy Config Struct -------------------------------- */

// PolicyConfig contains the policy engine client's settings.
type PolicyConfig struct {
	// EvaluateURL is the policy service's evaluate endpoint.
	EvaluateURL string `yaml:"evaluate_url"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	// DecisionCacheTTL is the staleness/latency trade-off knob for the
	// in-process decision cache.
	DecisionCacheTTL time.Duration `yaml:"decision_cache_ttl"`
}

/* --------------------------------- Policy Config Private Helpers -------------------------------- */

func (c *PolicyConfig) hydratePolicyDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultPolicyRequestTimeout
	}
	if c.DecisionCacheTTL == 0 {
		c.DecisionCacheTTL = defaultDecisionCacheTTL
	}
}

// Validate ensures the policy engine endpoint is configured.
func (c PolicyConfig) Validate() error {
	if c.EvaluateURL == "" {
		return fmt.Errorf("policy_config requires evaluate_url")
	}
	return nil
}
