package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"

	"tastymetrics/pkg/errors"
	"tastymetrics/pkg/models"
)

// Service owns the Snowflake connection the report runner reads through.
// All queries are read-only; the service never switches database, schema,
// role or warehouse after connecting.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// Config holds the Snowflake connection configuration. Role and warehouse
// are fixed per connection, passed in the DSN, never ambient session state.
type Config struct {
	Account   string
	Username  string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

// ConfigFromProfile builds a connection config from a stored profile and
// its resolved password.
func ConfigFromProfile(p models.Profile, password string) Config {
	return Config{
		Account:   p.Account,
		Username:  p.Username,
		Password:  password,
		Database:  p.Database,
		Schema:    p.Schema,
		Warehouse: p.Warehouse,
		Role:      p.Role,
	}
}

// NewService creates an unconnected Snowflake service.
func NewService(config Config) *Service {
	return &Service{config: config}
}

// Connect opens and ping-verifies the connection, retrying transient
// failures with backoff.
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
			s.config.Username,
			s.config.Password,
			s.config.Account,
			s.config.Database,
			s.config.Schema,
			s.config.Warehouse,
			s.config.Role,
		)

		db, err := sql.Open("snowflake", dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open Snowflake connection", err).
				WithContext("account", s.config.Account).
				WithContext("warehouse", s.config.Warehouse)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(10 * time.Minute)

		connCtx, cancel := s.getContext()
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()

			if strings.Contains(err.Error(), "authentication") {
				return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
					WithContext("user", s.config.Username).
					WithSuggestions(
						"Verify your username and password",
						"Check if your account is locked",
						"Ensure MFA is properly configured if required",
					)
			}

			return errors.ConnectionError("Failed to connect to Snowflake", err).
				WithContext("account", s.config.Account).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		return nil
	})
}

// Close closes the database connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	s.connected = false
	return nil
}

// TestConnection connects if needed and pings.
func (s *Service) TestConnection() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.PingContext(ctx)
}

// DB returns the underlying database handle for the report runner.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Connected reports whether Connect has succeeded.
func (s *Service) Connected() bool {
	return s.connected
}

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// ValidateConfig validates the Snowflake connection configuration.
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	if config.Role == "" {
		return fmt.Errorf("role is required")
	}
	if config.Database == "" {
		return fmt.Errorf("database is required")
	}
	if config.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	return nil
}
