package config

import "time"

// File represents the structure of the .vigireport configuration file.
// Every field is optional; unset fields leave the configuration untouched.
type File struct {
	SearchTerm string            `yaml:"searchTerm,omitempty"`
	BaseURL    string            `yaml:"baseURL,omitempty"`
	UserAgent  string            `yaml:"userAgent,omitempty"`
	Proxy      string            `yaml:"proxy,omitempty"`
	Format     string            `yaml:"format,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`

	// MaxRetries is a pointer so that an explicit 0 disables retries.
	MaxRetries *int `yaml:"maxRetries,omitempty"`

	// Timeout is a duration string such as "90s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxPages limits pages per category.
	MaxPages int `yaml:"maxPages,omitempty"`

	// RateLimit is a pointer so that an explicit 0 disables throttling.
	RateLimit *float64 `yaml:"rateLimit,omitempty"`
}

// Flag names that a config file key can stand in for.
const (
	FlagSearchTerm = "term"
	FlagBaseURL    = "base-url"
	FlagUserAgent  = "user-agent"
	FlagProxy      = "proxy"
	FlagFormat     = "format"
	FlagMaxRetries = "max-retries"
	FlagTimeout    = "timeout"
	FlagMaxPages   = "max-pages"
	FlagRateLimit  = "rate-limit"
)

// ApplyFile copies the values set in f into c. A value is skipped when
// explicit reports that the matching flag was given on the command line.
// A nil explicit treats every flag as unset.
func (c *Config) ApplyFile(f *File, explicit func(flag string) bool) {
	if f == nil {
		return
	}
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	if f.SearchTerm != "" && !explicit(FlagSearchTerm) {
		c.SearchTerm = f.SearchTerm
	}
	if f.BaseURL != "" && !explicit(FlagBaseURL) {
		c.BaseURL = f.BaseURL
	}
	if f.UserAgent != "" && !explicit(FlagUserAgent) {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" && !explicit(FlagProxy) {
		c.ProxyAddress = f.Proxy
	}
	if f.Format != "" && !explicit(FlagFormat) {
		c.Format = f.Format
	}
	if f.MaxRetries != nil && !explicit(FlagMaxRetries) {
		c.MaxRetries = *f.MaxRetries
	}
	if f.Timeout != 0 && !explicit(FlagTimeout) {
		c.Timeout = f.Timeout
	}
	if f.MaxPages != 0 && !explicit(FlagMaxPages) {
		c.MaxPages = f.MaxPages
	}
	if f.RateLimit != nil && !explicit(FlagRateLimit) {
		c.RateLimit = *f.RateLimit
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
}
