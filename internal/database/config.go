package database

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect identifies the database engine behind a connection.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgresql"
)

// DefaultConnectTimeout bounds the connect phase when nothing else is configured.
const DefaultConnectTimeout = 30 * time.Second

// Descriptor holds the caller-supplied connection parameters for a single
// request. It is never persisted; the cache only ever sees its fingerprint.
type Descriptor struct {
	// Dialect is chosen by the front controller, not by the request body.
	Dialect Dialect `json:"-"`

	Host     string `json:"host"`
	Port     Port   `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HostOrDefault returns Host, or "localhost" when blank.
func (d *Descriptor) HostOrDefault() string {
	if strings.TrimSpace(d.Host) == "" {
		return "localhost"
	}
	return d.Host
}

// PortOr returns the configured port, or def when unset.
func (d *Descriptor) PortOr(def int) int {
	if d.Port <= 0 {
		return def
	}
	return int(d.Port)
}

// LogFields returns the descriptor as log fields. The password is omitted.
func (d *Descriptor) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"dialect":  string(d.Dialect),
		"host":     d.Host,
		"port":     int(d.Port),
		"database": d.Database,
		"username": d.Username,
	}
}

// Port accepts both JSON numbers and numeric strings, since the platform
// sends connection settings as strings.
type Port int

func (p *Port) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*p = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port %q", s)
	}
	*p = Port(n)
	return nil
}

// Options carries the process-wide settings applied when opening a connection.
type Options struct {
	// ConnectTimeout bounds dialing, authentication and the first ping.
	ConnectTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{ConnectTimeout: DefaultConnectTimeout}
}

// Timeout returns ConnectTimeout, falling back to DefaultConnectTimeout.
func (o Options) Timeout() time.Duration {
	if o.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return o.ConnectTimeout
}
