package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/burrow/pkg/policy"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/types"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CloudConfig holds the per-service endpoints and credentials.
type CloudConfig struct {
	ComputeEndpoint      string `yaml:"compute_endpoint"`
	LoadBalancerEndpoint string `yaml:"load_balancer_endpoint"`
	RackConnectEndpoint  string `yaml:"rackconnect_endpoint"`

	// AuthToken may be left empty and supplied via BURROW_AUTH_TOKEN.
	AuthToken string `yaml:"auth_token"`
}

// PolicyConfig is one scaling policy as written in the config file.
type PolicyConfig struct {
	ID       string   `yaml:"id"`
	Type     string   `yaml:"type"`
	Change   int      `yaml:"change"`
	Cooldown Duration `yaml:"cooldown"`
}

// GroupConfig describes one scaling group under management.
type GroupConfig struct {
	ID              string                      `yaml:"id"`
	Desired         int                         `yaml:"desired"`
	MinEntities     int                         `yaml:"min_entities"`
	MaxEntities     int                         `yaml:"max_entities"`
	DrainingTimeout Duration                    `yaml:"draining_timeout"`
	LaunchConfig    types.LaunchConfig          `yaml:"launch_config"`
	LoadBalancers   map[string][]types.LBConfig `yaml:"load_balancers"`
	Policies        []PolicyConfig              `yaml:"policies"`
}

// Config is the full service configuration.
type Config struct {
	ListenAddr          string        `yaml:"listen_addr"`
	LogLevel            string        `yaml:"log_level"`
	LogJSON             bool          `yaml:"log_json"`
	Interval            Duration      `yaml:"interval"`
	CycleTimeout        Duration      `yaml:"cycle_timeout"`
	BuildTimeout        Duration      `yaml:"build_timeout"`
	MaxConcurrentGroups int           `yaml:"max_concurrent_groups"`
	Cloud               CloudConfig   `yaml:"cloud"`
	Groups              []GroupConfig `yaml:"groups"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies defaults and rejects inconsistent configuration.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Interval <= 0 {
		c.Interval = Duration(30 * time.Second)
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = Duration(5 * time.Minute)
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = Duration(time.Hour)
	}
	if c.MaxConcurrentGroups <= 0 {
		c.MaxConcurrentGroups = 10
	}
	if token := os.Getenv("BURROW_AUTH_TOKEN"); token != "" {
		c.Cloud.AuthToken = token
	}

	if c.Cloud.ComputeEndpoint == "" {
		return fmt.Errorf("cloud.compute_endpoint is required")
	}
	if c.Cloud.LoadBalancerEndpoint == "" {
		return fmt.Errorf("cloud.load_balancer_endpoint is required")
	}

	seen := make(map[string]bool, len(c.Groups))
	for i := range c.Groups {
		g := &c.Groups[i]
		if g.ID == "" {
			return fmt.Errorf("groups[%d]: id is required", i)
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate group id %q", g.ID)
		}
		seen[g.ID] = true

		if g.Desired < 0 {
			return fmt.Errorf("group %s: desired must not be negative", g.ID)
		}
		if g.MaxEntities > 0 && g.MinEntities > g.MaxEntities {
			return fmt.Errorf("group %s: min_entities exceeds max_entities", g.ID)
		}
		ports := make(map[string]map[int]bool)
		for lbID, configs := range g.LoadBalancers {
			ports[lbID] = make(map[int]bool)
			for _, lc := range configs {
				if lc.Port <= 0 {
					return fmt.Errorf("group %s: load balancer %s has invalid port %d", g.ID, lbID, lc.Port)
				}
				if ports[lbID][lc.Port] {
					return fmt.Errorf("group %s: load balancer %s lists port %d twice", g.ID, lbID, lc.Port)
				}
				ports[lbID][lc.Port] = true
			}
		}
	}
	return nil
}

// Endpoints maps each cloud service to its configured base URL.
func (c *Config) Endpoints() map[steps.ServiceType]string {
	endpoints := map[steps.ServiceType]string{
		steps.ServiceCompute:       c.Cloud.ComputeEndpoint,
		steps.ServiceLoadBalancers: c.Cloud.LoadBalancerEndpoint,
	}
	if c.Cloud.RackConnectEndpoint != "" {
		endpoints[steps.ServiceRCv3] = c.Cloud.RackConnectEndpoint
	}
	return endpoints
}

// Group returns the configuration for one group id.
func (c *Config) Group(id string) (*GroupConfig, bool) {
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// DesiredStates builds the desired state of every configured group. It is
// what the controller converges toward each cycle.
func (c *Config) DesiredStates() []types.DesiredGroupState {
	out := make([]types.DesiredGroupState, 0, len(c.Groups))
	for i := range c.Groups {
		out = append(out, c.Groups[i].DesiredState())
	}
	return out
}

// GroupPolicies returns the scaling policies and capacity limits of one
// group, or ok=false for an unknown group id.
func (c *Config) GroupPolicies(groupID string) ([]policy.Policy, policy.Limits, bool) {
	g, ok := c.Group(groupID)
	if !ok {
		return nil, policy.Limits{}, false
	}
	policies := make([]policy.Policy, 0, len(g.Policies))
	for _, p := range g.Policies {
		policies = append(policies, policy.Policy{
			ID:       p.ID,
			Type:     policy.Type(p.Type),
			Change:   p.Change,
			Cooldown: p.Cooldown.Std(),
		})
	}
	return policies, g.Limits(), true
}

// Limits returns the group's capacity bounds.
func (g *GroupConfig) Limits() policy.Limits {
	return policy.Limits{MinEntities: g.MinEntities, MaxEntities: g.MaxEntities}
}

// DesiredState builds the desired state the planner converges toward:
// load-balancer configs are normalized (default weight, condition, type)
// and the desired count clamped to the group's limits.
func (g *GroupConfig) DesiredState() types.DesiredGroupState {
	lbs := make(map[string][]types.LBConfig, len(g.LoadBalancers))
	for lbID, configs := range g.LoadBalancers {
		normalized := make([]types.LBConfig, 0, len(configs))
		for _, lc := range configs {
			normalized = append(normalized, types.NormalizeLBConfig(lc))
		}
		lbs[lbID] = normalized
	}

	return types.DesiredGroupState{
		GroupID:         g.ID,
		LaunchConfig:    g.LaunchConfig,
		Desired:         g.Limits().Clamp(g.Desired),
		DesiredLBs:      lbs,
		DrainingTimeout: g.DrainingTimeout.Std(),
	}
}
