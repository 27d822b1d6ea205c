package config

import (
	"fmt"

	"github.com/dagr-org/dagr/internal/auth"
)

// Config holds the application configuration.
type Config struct {
	// Host is the address the server binds to.
	Host string `mapstructure:"host"`
	// Port is the port the server listens on.
	Port int `mapstructure:"port"`
	// DAGsDir is the directory containing the DAG definition files.
	DAGsDir string `mapstructure:"dagsDir"`
	// DataDir is the directory for application data.
	DataDir string `mapstructure:"dataDir"`
	// DatabasePath is the path to the metadata database file. Defaults to
	// <dataDir>/dagr.db.
	DatabasePath string `mapstructure:"databasePath"`
	// LogFormat is the log output format (text or json).
	LogFormat string `mapstructure:"logFormat"`
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`
	// Auth configures request authentication.
	Auth Auth `mapstructure:"auth"`
}

// Auth configures the authentication middleware.
type Auth struct {
	// Basic enables HTTP basic authentication against the configured users.
	Basic AuthBasic `mapstructure:"basic"`
	// Token enables static API token authentication. Token requests act as
	// the admin principal.
	Token AuthToken `mapstructure:"token"`
	// Users declares the known principals with their roles and DAG grants.
	Users []AuthUser `mapstructure:"users"`
}

// AuthBasic configures HTTP basic authentication.
type AuthBasic struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthToken configures static API token authentication.
type AuthToken struct {
	Enabled bool   `mapstructure:"enabled"`
	Value   string `mapstructure:"value"`
}

// AuthUser declares a principal in the configuration file.
type AuthUser struct {
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Role     string   `mapstructure:"role"`
	DAGs     []string `mapstructure:"dags"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Principal resolves a configured user into an auth principal. The
// password is not carried on the principal.
func (u AuthUser) Principal() (*auth.User, error) {
	role, err := auth.ParseRole(u.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.Username, err)
	}
	return &auth.User{
		Username: u.Username,
		Role:     role,
		DAGs:     u.DAGs,
	}, nil
}
