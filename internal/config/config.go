package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Center   CenterConfig
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN string
}

// StorageConfig names the cascade: primary shared table, legacy table,
// operator-scoped table, then the local sqlite fallback file.
type StorageConfig struct {
	PrimaryTable  string
	LegacyTable   string
	OperatorTable string
	FallbackPath  string
}

type AuthConfig struct {
	JWTSecret string
}

type CenterConfig struct {
	Name          string
	VerifyBaseURL string
}

// Load reads configuration from the environment (PUC_ prefix) over defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PUC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.dsn", "")
	v.SetDefault("storage.primary_table", "emission_tests")
	v.SetDefault("storage.legacy_table", "emission_tests_legacy")
	v.SetDefault("storage.operator_table", "operator_emission_tests")
	v.SetDefault("storage.fallback_path", "fallback.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("center.name", "Anbu Emission Test Centre")
	v.SetDefault("center.verify_base_url", "http://localhost:8080/api/v1/verify")

	cfg := &Config{
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Storage: StorageConfig{
			PrimaryTable:  v.GetString("storage.primary_table"),
			LegacyTable:   v.GetString("storage.legacy_table"),
			OperatorTable: v.GetString("storage.operator_table"),
			FallbackPath:  v.GetString("storage.fallback_path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Center: CenterConfig{
			Name:          v.GetString("center.name"),
			VerifyBaseURL: v.GetString("center.verify_base_url"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("PUC_DATABASE_DSN is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("PUC_AUTH_JWT_SECRET is required")
	}
	return cfg, nil
}

// RecordTables returns the remote cascade tables in commit order.
func (c *Config) RecordTables() []string {
	return []string{
		c.Storage.PrimaryTable,
		c.Storage.LegacyTable,
		c.Storage.OperatorTable,
	}
}
