package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory layout defaults, relative to the working directory.
const (
	DefaultFilesDir = "files"
	DefaultLogsDir  = "logs"
	DefaultDataDir  = "data"

	DefaultDBFile = "library.db"
)

// Dirs is the resolved filesystem layout: MP3s and marker sidecars in
// Files, log files in Logs, the library database and temp segment WAVs
// in Data.
type Dirs struct {
	Files string
	Logs  string
	Data  string
}

// GetDirs resolves the directory layout from the environment, creating
// any directory that does not exist yet.
func GetDirs() (*Dirs, error) {
	d := &Dirs{
		Files: GetEnv("M3P_FILES_DIR", DefaultFilesDir),
		Logs:  GetEnv("M3P_LOGS_DIR", DefaultLogsDir),
		Data:  GetEnv("M3P_DATA_DIR", DefaultDataDir),
	}
	for _, dir := range []string{d.Files, d.Logs, d.Data} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return d, nil
}

// DBPath returns the SQLite database location inside the data dir.
func (d *Dirs) DBPath() string {
	return filepath.Join(d.Data, GetEnv("M3P_DB_FILE", DefaultDBFile))
}

// FilePath resolves a name relative to the files directory.
func (d *Dirs) FilePath(name string) string {
	return filepath.Join(d.Files, name)
}

// DatabaseConfig selects the library store. SQLite is the default;
// DB_TYPE=postgres switches to PostgreSQL.
type DatabaseConfig struct {
	Type        string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresDSN string
}

// GetDatabaseConfig reads the store selection from the environment.
func GetDatabaseConfig(dirs *Dirs) *DatabaseConfig {
	cfg := &DatabaseConfig{
		Type:       GetEnv("DB_TYPE", "sqlite"),
		SQLitePath: dirs.DBPath(),
	}
	if cfg.Type == "postgres" {
		cfg.PostgresDSN = GetPostgresDSN()
	}
	return cfg
}

// GetPostgresDSN builds a lib/pq connection string, preferring a full
// DATABASE_URL when set.
func GetPostgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "postgres")
	password := GetEnv("DB_PASSWORD", "")
	dbname := GetEnv("DB_NAME", "mp3player")
	sslmode := GetEnv("DB_SSLMODE", "disable")
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// GetRedisAddr returns the Redis address for the library cache, empty
// when caching is disabled.
func GetRedisAddr() string {
	return os.Getenv("REDIS_ADDR")
}

// TemporalConfig holds the distributed-transcription connection
// settings. Host empty means the feature is disabled.
type TemporalConfig struct {
	Host      string
	Namespace string
	TaskQueue string
}

// GetTemporalConfig reads the Temporal settings from the environment.
func GetTemporalConfig() *TemporalConfig {
	return &TemporalConfig{
		Host:      os.Getenv("TEMPORAL_HOST"),
		Namespace: GetEnv("TEMPORAL_NAMESPACE", "default"),
		TaskQueue: GetEnv("TEMPORAL_TASK_QUEUE", "m3p-transcription"),
	}
}

// Enabled reports whether distributed transcription is configured.
func (c *TemporalConfig) Enabled() bool {
	return c.Host != ""
}

// ObjectStoreConfig holds the S3-compatible backup target settings.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GetObjectStoreConfig reads the MinIO settings from the environment.
func GetObjectStoreConfig() *ObjectStoreConfig {
	return &ObjectStoreConfig{
		Endpoint:  GetEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: GetEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: GetEnv("MINIO_SECRET_KEY", "minioadmin"),
		Bucket:    GetEnv("MINIO_BUCKET", "m3p-library"),
		UseSSL:    GetEnvBool("MINIO_USE_SSL", false),
	}
}

// ServerConfig holds the HTTP API server settings.
type ServerConfig struct {
	Host        string
	Port        string
	Environment string
}

// GetServerConfig reads the server settings from the environment.
func GetServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:        GetEnv("M3P_SERVER_HOST", "0.0.0.0"),
		Port:        GetEnv("M3P_SERVER_PORT", "8080"),
		Environment: GetEnv("M3P_ENV", "development"),
	}
}
