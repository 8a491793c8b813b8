package consul

import (
	"fmt"
	"net"
	"strconv"
	"time"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceConfig contains configuration for service registration
type ServiceConfig struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *HealthCheck
}

// HealthCheck defines an HTTP health check run by the agent.
type HealthCheck struct {
	HTTP                           string
	Interval                       time.Duration
	Timeout                        time.Duration
	DeregisterCriticalServiceAfter time.Duration
}

// Registrar is implemented by Client.
type Registrar interface {
	Register(cfg *ServiceConfig) error
	Deregister(serviceID string) error
}

// APIService describes the registration of the blog API listening on
// host:port with its /health endpoint as the check.
func APIService(name, host, port string) (*ServiceConfig, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", port, err)
	}

	return &ServiceConfig{
		ID:      fmt.Sprintf("%s-%s-%d", name, host, p),
		Name:    name,
		Address: host,
		Port:    p,
		Tags:    []string{"api", "blog"},
		Check: &HealthCheck{
			HTTP:                           "http://" + net.JoinHostPort(host, port) + "/health",
			Interval:                       10 * time.Second,
			Timeout:                        3 * time.Second,
			DeregisterCriticalServiceAfter: time.Minute,
		},
	}, nil
}

// Register registers a service with Consul
func (c *Client) Register(cfg *ServiceConfig) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Address: cfg.Address,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
	}

	if cfg.Check != nil {
		check := &consulapi.AgentServiceCheck{
			HTTP:     cfg.Check.HTTP,
			Interval: cfg.Check.Interval.String(),
			Timeout:  cfg.Check.Timeout.String(),
		}
		if cfg.Check.DeregisterCriticalServiceAfter > 0 {
			check.DeregisterCriticalServiceAfter = cfg.Check.DeregisterCriticalServiceAfter.String()
		}
		registration.Check = check
	}

	if err := c.api.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	return nil
}

// Deregister removes a service from Consul
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	return nil
}
