package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"file-indexer/internal/indexer"
)

var allKeys = []string{
	KeyDatabasePath, KeyIndexWorkers, KeyScanMode, KeyBatchSize, KeyQueueSize,
	KeyLogFile, KeyLogLevel, KeyPort, KeyMetricsEnabled, KeyStaleRetries, KeyLogHealthChecks,
	KeyMemoryLimit, KeyMemoryRatio,
}

// clearEnv blanks every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.DatabasePath != "file_index.db" {
		t.Errorf("Expected default database path, got %s", cfg.DatabasePath)
	}
	if cfg.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Workers)
	}
	if cfg.ScanMode != indexer.ModeStreaming {
		t.Errorf("Expected streaming mode, got %s", cfg.ScanMode)
	}
	if cfg.BatchSize != 100 || cfg.QueueSize != 1000 {
		t.Errorf("Expected batch 100 and queue 1000, got %d and %d", cfg.BatchSize, cfg.QueueSize)
	}
	if cfg.LogFile != "file_indexer.log" {
		t.Errorf("Expected default log file, got %s", cfg.LogFile)
	}
	if cfg.Port != "8080" || !cfg.MetricsEnabled {
		t.Errorf("Expected port 8080 with metrics, got %s/%v", cfg.Port, cfg.MetricsEnabled)
	}
	if cfg.MemoryLimit != 0 || cfg.MemoryRatio != 0.85 {
		t.Errorf("Expected no memory limit and ratio 0.85, got %d/%v", cfg.MemoryLimit, cfg.MemoryRatio)
	}
	if cfg.RetryConfig().MaxRetries != 0 {
		t.Errorf("Expected retries disabled by default, got %d", cfg.RetryConfig().MaxRetries)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyDatabasePath, "/data/index.db")
	t.Setenv(KeyIndexWorkers, "3")
	t.Setenv(KeyScanMode, "batch")
	t.Setenv(KeyStaleRetries, "2")

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.DatabasePath != "/data/index.db" {
		t.Errorf("Expected /data/index.db, got %s", cfg.DatabasePath)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Workers)
	}

	ic := cfg.IndexerConfig()
	if ic.Mode != indexer.ModeBatch || ic.Workers != 3 {
		t.Errorf("Unexpected indexer config %+v", ic)
	}
	if ic.Retry.MaxRetries != 2 {
		t.Errorf("Expected 2 stale retries, got %d", ic.Retry.MaxRetries)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "file-indexer.yaml")
	content := "DATABASE_PATH: from-file.db\nBATCH_SIZE: 50\nQUEUE_SIZE: 200\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(KeyBatchSize, "25")

	v := viper.New()
	v.SetConfigFile(file)
	v.Set(KeyQueueSize, 10)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.DatabasePath != "from-file.db" {
		t.Errorf("Expected file value, got %s", cfg.DatabasePath)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("Expected environment to override file, got %d", cfg.BatchSize)
	}
	if cfg.QueueSize != 10 {
		t.Errorf("Expected explicit value to override file, got %d", cfg.QueueSize)
	}
	if cfg.ConfigFile != file {
		t.Errorf("Expected config file %s, got %s", file, cfg.ConfigFile)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown mode", key: KeyScanMode, value: "eager"},
		{name: "folders is not a file mode", key: KeyScanMode, value: "folders"},
		{name: "zero batch size", key: KeyBatchSize, value: "0"},
		{name: "negative queue size", key: KeyQueueSize, value: "-5"},
		{name: "negative retries", key: KeyStaleRetries, value: "-1"},
		{name: "unknown log level", key: KeyLogLevel, value: "verbose"},
		{name: "negative memory limit", key: KeyMemoryLimit, value: "-1"},
		{name: "memory ratio above one", key: KeyMemoryRatio, value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadConfig(viper.New()); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INDEX_WORKERS=5\nPORT=9999\n"), 0o644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Setenv(KeyPort, "7000")
	// Registered for cleanup before godotenv sets it.
	t.Setenv(KeyIndexWorkers, "")
	if err := os.Unsetenv(KeyIndexWorkers); err != nil {
		t.Fatalf("Unsetenv failed: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != 5 {
		t.Errorf("Expected workers from .env, got %d", cfg.Workers)
	}
	if cfg.Port != "7000" {
		t.Errorf("Expected existing environment to win over .env, got %s", cfg.Port)
	}
}

func TestEnsureDatabaseDir(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "index.db")
	if err := EnsureDatabaseDir(dbPath); err != nil {
		t.Fatalf("EnsureDatabaseDir failed: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(dbPath)); err != nil || !info.IsDir() {
		t.Errorf("Expected directory to be created, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := EnsureDatabaseDir(filepath.Join(file, "index.db")); err == nil {
		t.Error("Expected error when the parent is a file")
	}
}

func TestGetRoutes(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.HandleFunc("/api/stats", func(_ http.ResponseWriter, _ *http.Request) {}).Methods(http.MethodGet).Name("stats")
	router.HandleFunc("/health", func(_ http.ResponseWriter, _ *http.Request) {})

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(routes))
	}
	if routes[0].Method != http.MethodGet || routes[0].Path != "/api/stats" || routes[0].Name != "stats" {
		t.Errorf("Unexpected first route %+v", routes[0])
	}
	if routes[1].Method != "*" {
		t.Errorf("Expected wildcard method, got %s", routes[1].Method)
	}
}

func TestGetRouteGroup(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/api/search":          "api/search",
		"/api/extension/{ext}": "api/extension",
		"/health":              "health",
		"/":                    "",
	}
	for path, want := range tests {
		if got := getRouteGroup(path); got != want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", path, got, want)
		}
	}
}
