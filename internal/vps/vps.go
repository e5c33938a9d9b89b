// Package vps is the mock server panel: configuration entries persisted to a
// JSON file, with connection tests and status changes decided by a random
// source instead of real probes. Nothing here opens a network connection.
package vps

import (
	"errors"
	"time"
)

// State is a simulated reachability status.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
	StateUnknown State = "unknown"
)

// Config is one managed server entry as submitted by the user.
type Config struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"password,omitempty"`
	PrivateKey    string `json:"privateKey,omitempty"`
	UsePrivateKey bool   `json:"usePrivateKey"`
}

// Status is the simulated view of one server. Usage percentages are whole
// numbers in [0, 99].
type Status struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	State          State     `json:"state"`
	Host           string    `json:"host"`
	Location       string    `json:"location"`
	CPUUsage       int       `json:"cpuUsage"`
	RAMUsage       int       `json:"ramUsage"`
	DiskUsage      int       `json:"diskUsage"`
	ExpirationDate time.Time `json:"expirationDate"`
	LastChecked    time.Time `json:"lastChecked"`
}

// ErrNotFound is returned when no entry matches the given id.
var ErrNotFound = errors.New("vps entry not found")

// Validate rejects entries that could not identify a host.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}
