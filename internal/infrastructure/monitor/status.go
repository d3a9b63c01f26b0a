package monitor

import "time"

type Status struct {
	Store     bool      `json:"store"`
	Driver    string    `json:"driver"`
	Breaker   string    `json:"breaker,omitempty"`
	Records   int       `json:"records"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}
