package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/mpmonitor/internal/flagx"
	"github.com/dmitrijs2005/mpmonitor/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig defines a configuration structure tailored for file decoding.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Only non-zero values override the runtime Config, so a file may set a
// handful of keys and leave the rest to defaults and the environment.
type FileConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http" toml:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc" toml:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn" toml:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" toml:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" toml:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	BlobBackend                 string         `json:"blob_backend" toml:"blob_backend" yaml:"blob_backend"`
	S3RootUser                  string         `json:"s3_root_user" toml:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" toml:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" toml:"s3_bucket" yaml:"s3_bucket"`
	S3DocumentsBucket           string         `json:"s3_documents_bucket" toml:"s3_documents_bucket" yaml:"s3_documents_bucket"`
	S3Region                    string         `json:"s3_region" toml:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" toml:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	PublicBaseURL               string         `json:"public_base_url" toml:"public_base_url" yaml:"public_base_url"`
	RedisAddr                   string         `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword               string         `json:"redis_password" toml:"redis_password" yaml:"redis_password"`
	RedisDB                     int            `json:"redis_db" toml:"redis_db" yaml:"redis_db"`
	BlobTimeout                 timex.Duration `json:"blob_timeout" toml:"blob_timeout" yaml:"blob_timeout"`
	DBTimeout                   timex.Duration `json:"db_timeout" toml:"db_timeout" yaml:"db_timeout"`
	MaxUploadSize               int64          `json:"max_upload_size" toml:"max_upload_size" yaml:"max_upload_size"`
	AllowedOrigins              []string       `json:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins"`
	LogFormat                   string         `json:"log_format" toml:"log_format" yaml:"log_format"`
	ReaperMaxRetry              int            `json:"reaper_max_retry" toml:"reaper_max_retry" yaml:"reaper_max_retry"`
}

// parseFile loads configuration values from the file named by -c/-config.
// The decoder is picked by extension: .toml, .yaml/.yml, anything else JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)

	// nothing to load
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.BlobBackend, c.BlobBackend)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3DocumentsBucket, c.S3DocumentsBucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.PublicBaseURL, c.PublicBaseURL)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.LogFormat, c.LogFormat)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.BlobTimeout.Duration != 0 {
		config.BlobTimeout = c.BlobTimeout.Duration
	}
	if c.DBTimeout.Duration != 0 {
		config.DBTimeout = c.DBTimeout.Duration
	}
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.ReaperMaxRetry != 0 {
		config.ReaperMaxRetry = c.ReaperMaxRetry
	}
}
