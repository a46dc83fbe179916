package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"file-indexer/internal/filesystem"
	"file-indexer/internal/indexer"
	"file-indexer/internal/logging"
	"file-indexer/internal/memory"
	"file-indexer/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Configuration keys. Each is also read from the environment variable of
// the same name.
const (
	KeyDatabasePath    = "DATABASE_PATH"
	KeyIndexWorkers    = "INDEX_WORKERS"
	KeyScanMode        = "SCAN_MODE"
	KeyBatchSize       = "BATCH_SIZE"
	KeyQueueSize       = "QUEUE_SIZE"
	KeyLogFile         = "LOG_FILE"
	KeyLogLevel        = "LOG_LEVEL"
	KeyPort            = "PORT"
	KeyMetricsEnabled  = "METRICS_ENABLED"
	KeyStaleRetries    = "STALE_RETRIES"
	KeyLogHealthChecks = "LOG_HEALTH_CHECKS"
	KeyMemoryLimit     = "MEMORY_LIMIT"
	KeyMemoryRatio     = "MEMORY_RATIO"
)

// ConfigFileName is the base name of the optional YAML config file.
const ConfigFileName = "file-indexer"

// Config holds all application configuration
type Config struct {
	DatabasePath    string
	Workers         int
	ScanMode        indexer.Mode
	BatchSize       int
	QueueSize       int
	LogFile         string
	LogLevel        string
	Port            string
	MetricsEnabled  bool
	StaleRetries    int
	LogHealthChecks bool
	MemoryLimit     int64
	MemoryRatio     float64

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

// SetDefaults registers default values and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "file_index.db")
	v.SetDefault(KeyIndexWorkers, workers.DefaultScanWorkers)
	v.SetDefault(KeyScanMode, string(indexer.ModeStreaming))
	v.SetDefault(KeyBatchSize, indexer.DefaultBatchSize)
	v.SetDefault(KeyQueueSize, indexer.DefaultQueueSize)
	v.SetDefault(KeyLogFile, "file_indexer.log")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyStaleRetries, 0)
	v.SetDefault(KeyLogHealthChecks, false)
	v.SetDefault(KeyMemoryLimit, 0)
	v.SetDefault(KeyMemoryRatio, memory.DefaultRatio)

	v.AutomaticEnv()
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("Loaded environment from %s", path)
	return nil
}

// LoadConfig resolves configuration from v (flags, environment, optional
// config file and defaults, in that order) and validates it.
func LoadConfig(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if v.ConfigFileUsed() == "" {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	mode, err := indexer.ParseMode(v.GetString(KeyScanMode))
	if err != nil {
		return nil, err
	}
	if mode == indexer.ModeFolders {
		return nil, fmt.Errorf("%s must be %q or %q", KeyScanMode, indexer.ModeStreaming, indexer.ModeBatch)
	}

	cfg := &Config{
		DatabasePath:    v.GetString(KeyDatabasePath),
		Workers:         workers.Resolve(v.GetInt(KeyIndexWorkers)),
		ScanMode:        mode,
		BatchSize:       v.GetInt(KeyBatchSize),
		QueueSize:       v.GetInt(KeyQueueSize),
		LogFile:         v.GetString(KeyLogFile),
		LogLevel:        v.GetString(KeyLogLevel),
		Port:            v.GetString(KeyPort),
		MetricsEnabled:  v.GetBool(KeyMetricsEnabled),
		StaleRetries:    v.GetInt(KeyStaleRetries),
		LogHealthChecks: v.GetBool(KeyLogHealthChecks),
		MemoryLimit:     v.GetInt64(KeyMemoryLimit),
		MemoryRatio:     v.GetFloat64(KeyMemoryRatio),
		ConfigFile:      v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabasePath == "":
		return fmt.Errorf("%s must not be empty", KeyDatabasePath)
	case c.Workers < 1:
		return fmt.Errorf("%s must be at least 1, got %d", KeyIndexWorkers, c.Workers)
	case c.BatchSize < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyBatchSize, c.BatchSize)
	case c.QueueSize < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyQueueSize, c.QueueSize)
	case c.StaleRetries < 0:
		return fmt.Errorf("%s must not be negative, got %d", KeyStaleRetries, c.StaleRetries)
	case c.MemoryLimit < 0:
		return fmt.Errorf("%s must not be negative, got %d", KeyMemoryLimit, c.MemoryLimit)
	case c.MemoryRatio <= 0 || c.MemoryRatio > 1:
		return fmt.Errorf("%s must be in (0, 1], got %v", KeyMemoryRatio, c.MemoryRatio)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); c.LogLevel != "" && !ok {
		return fmt.Errorf("unknown %s %q", KeyLogLevel, c.LogLevel)
	}
	return nil
}

// RetryConfig returns the filesystem retry policy. Stale-handle retries
// are off unless STALE_RETRIES is positive.
func (c *Config) RetryConfig() filesystem.RetryConfig {
	if c.StaleRetries <= 0 {
		return filesystem.NoRetry()
	}
	retry := filesystem.DefaultRetryConfig()
	retry.MaxRetries = c.StaleRetries
	return retry
}

// IndexerConfig converts c into the indexer's configuration.
func (c *Config) IndexerConfig() indexer.Config {
	return indexer.Config{
		Workers:   c.Workers,
		BatchSize: c.BatchSize,
		QueueSize: c.QueueSize,
		Mode:      c.ScanMode,
		Retry:     c.RetryConfig(),
	}
}

// ApplyLogging sets the log file from c, and the log level when LOG_LEVEL
// is set. Otherwise the level derived from DEBUG and LOG_LEVEL at startup
// stays in effect.
func (c *Config) ApplyLogging() error {
	if level, ok := logging.ParseLevel(c.LogLevel); ok {
		logging.SetLevel(level)
	}
	return logging.SetOutputFile(c.LogFile)
}

// ApplyMemoryLimit sets the Go soft memory limit from MEMORY_LIMIT and
// MEMORY_RATIO.
func (c *Config) ApplyMemoryLimit() memory.Result {
	return memory.Configure(c.MemoryLimit, c.MemoryRatio)
}

// LogConfig logs the configuration section of the startup output.
func LogConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFile != "" {
		logging.Info("  Config file:         %s", c.ConfigFile)
	}
	logging.Info("  DATABASE_PATH:       %s", c.DatabasePath)
	logging.Info("  INDEX_WORKERS:       %d", c.Workers)
	logging.Info("  SCAN_MODE:           %s", c.ScanMode)
	logging.Info("  BATCH_SIZE:          %d", c.BatchSize)
	logging.Info("  QUEUE_SIZE:          %d", c.QueueSize)
	logging.Info("  STALE_RETRIES:       %d", c.StaleRetries)
	if c.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:        %s (ratio %.2f)", humanize.IBytes(uint64(c.MemoryLimit)), c.MemoryRatio)
	}
	logging.Info("  LOG_FILE:            %s", valueOrDisabled(c.LogFile))
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("")
}

// EnsureDatabaseDir creates the directory holding the database file and
// checks that it is writable.
func EnsureDatabaseDir(dbPath string) error {
	dir, err := filepath.Abs(filepath.Dir(dbPath))
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	if err := ensureDirectory(dir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(dir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	return nil
}

func valueOrDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// PrintBanner prints the banner and build information.
func PrintBanner() {
	banner := `
------------------------------------------------------------
    _______ __        ____          __
   / ____(_) /__     /  _/___  ____/ /__  _  _____  _____
  / /_  / / / _ \    / // __ \/ __  / _ \| |/_/ _ \/ ___/
 / __/ / / /  __/  _/ // / / / /_/ /  __/>  </  __/ /
/_/   /_/_/\___/  /___/_/ /_/\__,_/\___/_/|_|\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

// LogSystemInfo logs runtime and host details.
func LogSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
	logging.Info("")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by prefix.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
	logging.Info("")
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/health", config.Port)
	logging.Info("    Metrics:       %s", enabledString(config.MetricsEnabled))
	if config.MetricsEnabled {
		logging.Info("                   http://0.0.0.0:%s/metrics", config.Port)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
