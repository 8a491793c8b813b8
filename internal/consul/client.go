// Package consul registers the API process with a Consul agent so it can be
// discovered and health checked.
package consul

import (
	consulapi "github.com/hashicorp/consul/api"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
}

// NewClient creates a Consul client. An empty token leaves ACLs to the agent
// defaults.
func NewClient(addr, token string) (*Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = addr

	if token != "" {
		config.Token = token
	}

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{api: client}, nil
}
