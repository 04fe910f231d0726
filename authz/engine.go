package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Policy is the (action, resource) pair declared by a route, requiring a
// decision from the policy engine beyond scope membership.
type Policy struct {
	Action   string
	Resource string
}

// Evaluation is the policy engine's answer for one (subject, action,
// resource) tuple.
type Evaluation struct {
	Decision      string            `json:"decision"`
	FieldMask     []string          `json:"field_mask,omitempty"`
	RowConditions map[string]string `json:"row_conditions,omitempty"`
}

const decisionAllow = "allow"

// PolicyClient is the remote policy engine collaborator.
type PolicyClient interface {
	Evaluate(ctx context.Context, subject, action, resource, resourceID string) (Evaluation, error)
}

// HTTPPolicyClient evaluates policies against a policy service speaking
// JSON over HTTP.
type HTTPPolicyClient struct {
	// EvaluateURL is the full URL of the policy service's evaluate endpoint.
	EvaluateURL string

	// RequestTimeout bounds a single evaluation call. The policy gate
	// fails closed when it elapses.
	RequestTimeout time.Duration

	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

type evaluateRequest struct {
	Subject    string `json:"subject"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id,omitempty"`
}

// Name satisfies the health.Check interface.
func (c *HTTPPolicyClient) Name() string {
	return "policy_engine"
}

// IsAlive satisfies the health.Check interface. Any HTTP response from the
// policy service counts as alive; decision semantics are not probed here.
func (c *HTTPPolicyClient) IsAlive() bool {
	timeout := c.RequestTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.EvaluateURL, nil)
	if err != nil {
		return false
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Evaluate implements the PolicyClient interface.
func (c *HTTPPolicyClient) Evaluate(ctx context.Context, subject, action, resource, resourceID string) (Evaluation, error) {
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	reqBody, err := json.Marshal(evaluateRequest{
		Subject:    subject,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to marshal evaluate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EvaluateURL, bytes.NewReader(reqBody))
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to build evaluate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Evaluation{}, fmt.Errorf("policy service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Evaluation{}, fmt.Errorf("policy service returned status %d", resp.StatusCode)
	}

	var eval Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return Evaluation{}, fmt.Errorf("failed to decode evaluate response: %w", err)
	}

	return eval, nil
}
