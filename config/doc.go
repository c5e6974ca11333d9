// Package config provides configuration loading and validation for davgate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DAVGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	ctx = config.WithContext(ctx, cfg)
//
// Read skips validation, for commands such as "davgate token" that fill in
// missing credentials interactively before calling Validate.
//
// # Environment Variables
//
// All config keys map to environment variables with DAVGATE_ prefix:
//   - server.listen → DAVGATE_SERVER_LISTEN
//   - auth.password → DAVGATE_AUTH_PASSWORD
//   - audit.database.dsn → DAVGATE_AUDIT_DATABASE_DSN
//
// # Validation
//
//   - server.listen and metrics.listen must be host:port
//   - server.prefix must be empty or a clean absolute path
//   - auth.username is required, auth.password unless auth.password_file is set
//   - lock.backend must be memory or fake
//   - audit table names must match ^[a-z_][a-z0-9_]*$
package config
