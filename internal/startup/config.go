package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/workers"
)

// ConfigurationError reports an invalid or unusable setting. It is fatal:
// nothing is indexed until it is fixed.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid configuration %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Config holds all application configuration
type Config struct {
	OriginalsDir string
	ArtifactsDir string
	MetadataFile string
	ErrorsFile   string

	SmallWidth    int
	MediumWidth   int
	SmallQuality  int
	MediumQuality int

	MaxProcs            int
	IndexWorkers        int
	FlushEvery          int
	LivePhotoMaxSeconds float64

	MetadataBackend string
	ImageExtensions []string
	VideoExtensions []string
	Port            string

	// Derived paths
	MetadataPath string
	ErrorLogPath string
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Variables already in the environment win; missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		logging.Debug("Loaded environment from %s", path)
	}
	return nil
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  ORIGINAL_PHOTOS:         %s", config.OriginalsDir)
	logging.Info("  GENERATED_THUMBNAILS:    %s", config.ArtifactsDir)
	logging.Info("  METADATA_BACKEND:        %s", config.MetadataBackend)
	logging.Info("  METADATA_FILE:           %s", config.MetadataFile)
	logging.Info("  ERRORS_FILE:             %s", config.ErrorsFile)
	logging.Info("  THUMBNAIL_SIZE:          %d", config.SmallWidth)
	logging.Info("  MEDIUM_SIZE:             %d", config.MediumWidth)
	logging.Info("  SMALL_QUALITY:           %d", config.SmallQuality)
	logging.Info("  MEDIUM_QUALITY:          %d", config.MediumQuality)
	logging.Info("  EXIF_MAX_PROCS:          %d", config.MaxProcs)
	logging.Info("  INDEX_WORKERS:           %d", config.IndexWorkers)
	logging.Info("  FLUSH_EVERY:             %d", config.FlushEvery)
	logging.Info("  LIVE_PHOTO_MAX_SECONDS:  %v", config.LivePhotoMaxSeconds)
	logging.Info("  IMAGE_EXTENSIONS:        %s", strings.Join(config.ImageExtensions, ","))
	logging.Info("  VIDEO_EXTENSIONS:        %s", strings.Join(config.VideoExtensions, ","))
	logging.Info("  PORT:                    %s", config.Port)
	logging.Info("  LOG_LEVEL:               %s", logging.GetLevel())

	if err := config.Validate(); err != nil {
		return nil, err
	}

	LogDirectoryCheck(config)
	return config, nil
}

// configFromEnv parses the environment without touching the filesystem.
func configFromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvPositiveInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	config := &Config{
		OriginalsDir:    getEnv("ORIGINAL_PHOTOS", "/originals"),
		ArtifactsDir:    getEnv("GENERATED_THUMBNAILS", "/thumbs"),
		ErrorsFile:      getEnv("ERRORS_FILE", "errors.log"),
		MetadataBackend: strings.ToLower(getEnv("METADATA_BACKEND", "json")),
		Port:            getEnv("PORT", "8080"),
		SmallWidth:      intVar("THUMBNAIL_SIZE", 300),
		MediumWidth:     intVar("MEDIUM_SIZE", 1200),
		SmallQuality:    intVar("SMALL_QUALITY", 80),
		MediumQuality:   intVar("MEDIUM_QUALITY", 95),
		IndexWorkers:    intVar("INDEX_WORKERS", 1),
		FlushEvery:      intVar("FLUSH_EVERY", 50),
		MaxProcs:        workers.Resolve(intVar("EXIF_MAX_PROCS", 0)),
		ImageExtensions: getEnvList("IMAGE_EXTENSIONS", mediatypes.DefaultImageExtensions),
		VideoExtensions: getEnvList("VIDEO_EXTENSIONS", mediatypes.DefaultVideoExtensions),
	}

	liveMax, err := getEnvPositiveFloat("LIVE_PHOTO_MAX_SECONDS", 4)
	if err != nil {
		errs = append(errs, err)
	}
	config.LivePhotoMaxSeconds = liveMax

	defaultMetadata := "metadata.json"
	if config.MetadataBackend == "sqlite" {
		defaultMetadata = "metadata.db"
	}
	config.MetadataFile = getEnv("METADATA_FILE", defaultMetadata)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return config, nil
}

// Validate resolves paths, checks the originals root and prepares the
// artifact root. It is the last step before any indexing work.
func (c *Config) Validate() error {
	switch c.MetadataBackend {
	case "json", "sqlite":
	default:
		return &ConfigurationError{Key: "METADATA_BACKEND", Value: c.MetadataBackend, Err: errors.New("must be json or sqlite")}
	}

	for key, q := range map[string]int{"SMALL_QUALITY": c.SmallQuality, "MEDIUM_QUALITY": c.MediumQuality} {
		if q > 100 {
			return &ConfigurationError{Key: key, Value: strconv.Itoa(q), Err: errors.New("must be between 1 and 100")}
		}
	}

	if len(c.ImageExtensions) == 0 && len(c.VideoExtensions) == 0 {
		return &ConfigurationError{Key: "IMAGE_EXTENSIONS", Err: errors.New("no image or video extensions configured")}
	}

	originals, err := filepath.Abs(c.OriginalsDir)
	if err != nil {
		return &ConfigurationError{Key: "ORIGINAL_PHOTOS", Value: c.OriginalsDir, Err: err}
	}
	info, err := os.Stat(originals)
	if err != nil {
		return &ConfigurationError{Key: "ORIGINAL_PHOTOS", Value: c.OriginalsDir, Err: err}
	}
	if !info.IsDir() {
		return &ConfigurationError{Key: "ORIGINAL_PHOTOS", Value: c.OriginalsDir, Err: errors.New("not a directory")}
	}
	c.OriginalsDir = originals

	artifacts, err := filepath.Abs(c.ArtifactsDir)
	if err != nil {
		return &ConfigurationError{Key: "GENERATED_THUMBNAILS", Value: c.ArtifactsDir, Err: err}
	}
	if err := ensureDirectory(artifacts); err != nil {
		return &ConfigurationError{Key: "GENERATED_THUMBNAILS", Value: c.ArtifactsDir, Err: err}
	}
	if err := testWriteAccess(artifacts); err != nil {
		return &ConfigurationError{Key: "GENERATED_THUMBNAILS", Value: c.ArtifactsDir, Err: fmt.Errorf("not writable: %w", err)}
	}
	c.ArtifactsDir = artifacts

	c.MetadataPath = underRoot(artifacts, c.MetadataFile)
	c.ErrorLogPath = underRoot(artifacts, c.ErrorsFile)
	return nil
}

// underRoot places relative names inside root.
func underRoot(root, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(root, name)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvPositiveInt returns defaultValue when key is unset. A set value
// must parse as an integer greater than zero.
func getEnvPositiveInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, &ConfigurationError{Key: key, Value: value, Err: err}
	}
	if n <= 0 {
		return defaultValue, &ConfigurationError{Key: key, Value: value, Err: errors.New("must be positive")}
	}
	return n, nil
}

func getEnvPositiveFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, &ConfigurationError{Key: key, Value: value, Err: err}
	}
	if f <= 0 {
		return defaultValue, &ConfigurationError{Key: key, Value: value, Err: errors.New("must be positive")}
	}
	return f, nil
}

// getEnvList splits a comma-separated value into normalized extensions.
func getEnvList(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		out := make([]string, len(defaultValue))
		copy(out, defaultValue)
		return out
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if ext := mediatypes.NormalizeExtension(part); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
