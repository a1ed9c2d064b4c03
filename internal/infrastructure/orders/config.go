package orders

import (
	"errors"
	"strings"
)

// Config holds connection settings for the order service API
type Config struct {
	// BaseURL is the root URL of the order service, e.g. "http://orders:9000"
	BaseURL string
	// APIKey authenticates service-to-service calls
	APIKey string
	// TimeoutSeconds bounds each request
	TimeoutSeconds int
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("orders: config is nil")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("orders: base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("orders: base URL must be http or https")
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
