package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv copies variables from a .env file into the process
// environment. Variables that are already set win. A missing file is fine.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

// parseEnv overlays values from MPM_* environment variables. DATABASE_URL
// and JWT_SECRET are honoured as fallbacks for existing deployments.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&cfg.EndpointAddrHTTP, "MPM_HTTP_ADDR")
	str(&cfg.EndpointAddrGRPC, "MPM_GRPC_ADDR")
	str(&cfg.DatabaseDSN, "MPM_DATABASE_DSN", "DATABASE_URL")
	str(&cfg.SecretKey, "MPM_SECRET_KEY", "JWT_SECRET")
	str(&cfg.BlobBackend, "MPM_BLOB_BACKEND")
	str(&cfg.S3RootUser, "MPM_S3_USER")
	str(&cfg.S3RootPassword, "MPM_S3_PASSWORD")
	str(&cfg.S3Bucket, "MPM_S3_BUCKET")
	str(&cfg.S3DocumentsBucket, "MPM_S3_DOCUMENTS_BUCKET")
	str(&cfg.S3Region, "MPM_S3_REGION")
	str(&cfg.S3BaseEndpoint, "MPM_S3_ENDPOINT")
	str(&cfg.PublicBaseURL, "MPM_PUBLIC_BASE_URL")
	str(&cfg.RedisAddr, "MPM_REDIS_ADDR")
	str(&cfg.RedisPassword, "MPM_REDIS_PASSWORD")
	str(&cfg.LogFormat, "MPM_LOG_FORMAT")
	str(&cfg.AdminUsername, "MPM_ADMIN_USERNAME", "ADMIN_USERNAME")
	str(&cfg.AdminPassword, "MPM_ADMIN_PASSWORD", "ADMIN_PASSWORD")
	str(&cfg.AdminRole, "MPM_ADMIN_ROLE", "ADMIN_ROLE")

	if v, ok := lookup("MPM_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"MPM_TOKEN_TTL", &cfg.AccessTokenValidityDuration},
		{"MPM_BLOB_TIMEOUT", &cfg.BlobTimeout},
		{"MPM_DB_TIMEOUT", &cfg.DBTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MPM_REDIS_DB", &cfg.RedisDB},
		{"MPM_REAPER_MAX_RETRY", &cfg.ReaperMaxRetry},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = parsed
	}

	if v, ok := lookup("MPM_MAX_UPLOAD_SIZE"); ok && v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MPM_MAX_UPLOAD_SIZE: %w", err)
		}
		cfg.MaxUploadSize = parsed
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
