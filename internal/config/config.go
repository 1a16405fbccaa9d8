package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/adrg/xdg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "vigireport"

	// DefaultSearchTerm is the drug looked up when none is given.
	DefaultSearchTerm = "covid-19 vaccine"

	// DefaultBaseURL is the VigiAccess site.
	DefaultBaseURL = "https://vigiaccess.org"

	// DefaultTimeout applies to each request, not to the whole run.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retries after a transient failure.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the wait before the first retry. It doubles
	// on each further retry.
	DefaultRetryBackoff = 1 * time.Second

	// DefaultRateLimit is the number of requests per second sent to
	// VigiAccess.
	DefaultRateLimit = 4.0

	// DefaultMaxPages of zero means categories are drained without limit.
	DefaultMaxPages = 0

	// DefaultUserAgent identifies vigireport in HTTP requests.
	DefaultUserAgent = "vigireport/1.0 (+https://github.com/nao1215/vigireport)"

	// DefaultFormat is the legacy text layout.
	DefaultFormat = "text"

	// DefaultLogFileName is the run log created in the XDG state directory.
	DefaultLogFileName = "vigireport.log"

	// fileDateLayout is dd-mm-yyyy.
	fileDateLayout = "02-01-2006"
)

// Config holds all configuration options for a run. It is populated from
// CLI flags and the optional config file.
type Config struct {
	// SearchTerm is the drug name looked up on VigiAccess.
	SearchTerm string

	// BaseURL is the scheme and host of the VigiAccess service.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int

	// RetryBackoff is the wait before the first retry.
	RetryBackoff time.Duration

	// MaxPages limits the detail pages fetched per category. Zero means
	// no limit.
	MaxPages int

	// RateLimit caps requests per second. Zero means no limit.
	RateLimit float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// Format is text, markdown or json.
	Format string

	// OutputFile is where the report is written. Empty means the default
	// file name in the working directory; "-" means stdout.
	OutputFile string

	// LogFile is the run log. It is truncated at the start of each run.
	LogFile string

	// Verbose enables debug output on the console.
	Verbose bool

	// ConfigFilePath is the path given with --config. Empty means the
	// default search locations.
	ConfigFilePath string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores the run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SearchTerm:   DefaultSearchTerm,
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
		MaxPages:     DefaultMaxPages,
		RateLimit:    DefaultRateLimit,
		UserAgent:    DefaultUserAgent,
		Format:       DefaultFormat,
		LogFile:      DefaultLogFile(),
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
	}
}

// XDGDataDir returns the XDG data directory for vigireport.
// On Linux: ~/.local/share/vigireport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vigireport.
// On Linux: ~/.config/vigireport
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for vigireport.
// On Linux: ~/.local/state/vigireport
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultLogFile returns the default run log path.
func DefaultLogFile() string {
	return filepath.Join(XDGStateDir(), DefaultLogFileName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SearchTerm) == "" {
		return ErrNoSearchTerm
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryBackoff < 0 {
		return ErrInvalidRetryBackoff
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	switch c.Format {
	case "text", "markdown", "json":
	default:
		return ErrInvalidFormat
	}

	return nil
}

// OutputFileName returns the default report file name for term, e.g.
// WHO_DataBase_Covid19Vaccine_16-10-2026.txt.
func OutputFileName(term, format string, now time.Time) string {
	return "WHO_DataBase_" + fileTerm(term) + "_" + now.Format(fileDateLayout) + extension(format)
}

// ReportPath returns the configured output file, or the default file name
// when none was given.
func (c *Config) ReportPath(now time.Time) string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	return OutputFileName(c.SearchTerm, c.Format, now)
}

// fileTerm title-cases term and keeps only letters and digits.
func fileTerm(term string) string {
	titled := cases.Title(language.Und).String(term)
	var sb strings.Builder
	for _, r := range titled {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "Report"
	}
	return sb.String()
}

func extension(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "json":
		return ".json"
	default:
		return ".txt"
	}
}
