package remote

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrConfParamMissing = fmt.Errorf("configuration parameter missing")

type Config struct {
	BaseURL string `toml:"baseURL"`
	// TimeoutSec of 0 leaves requests bounded only by their context.
	TimeoutSec int  `toml:"timeoutSec"`
	Cache      bool `toml:"cache"`
	// Cookies seed the session jar, e.g. the access_token set by the sign-in flow.
	Cookies map[string]string `toml:"cookies"`
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: baseURL", ErrConfParamMissing)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid baseURL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid baseURL %q: scheme must be http or https", c.BaseURL)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("invalid timeoutSec %d", c.TimeoutSec)
	}

	return nil
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *Config) cookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(c.Cookies))
	for name, value := range c.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}

	return cookies
}
