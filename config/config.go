// Package config loads recipebox settings from defaults, an optional YAML
// file and RECIPEBOX_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"recipebox/favorites"
	"recipebox/mealdb"
	"recipebox/storage"
)

const EnvPrefix = "RECIPEBOX"

type Config struct {
	Listen      string
	LogLevel    string
	CORSOrigins []string
	// ImageHosts are the upstream hosts the image proxy may fetch from.
	ImageHosts []string

	MealDB     MealDB
	Storage    storage.Config
	Favourites Favourites
}

type MealDB struct {
	BaseURL         string
	Timeout         time.Duration
	RatePerSecond   float64
	RetryMaxElapsed time.Duration
}

type Favourites struct {
	Key string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("image.hosts", []string{"www.themealdb.com"})

	v.SetDefault("mealdb.base_url", mealdb.DefaultBaseURL)
	v.SetDefault("mealdb.timeout", 15*time.Second)
	v.SetDefault("mealdb.rate", 5.0)
	v.SetDefault("mealdb.retry_max_elapsed", 10*time.Second)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.ephemeral", false)
	v.SetDefault("storage.path", defaultDataDir())
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.project", "")
	v.SetDefault("storage.collection", "recipebox")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.region", "")

	v.SetDefault("favourites.key", favorites.DefaultKey)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "recipebox")
	}
	return ".recipebox"
}

// Load builds a Config. A missing file at path is not an error; an unreadable
// or malformed one is. Flags, when given, override every other source.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		bindings := map[string]string{
			"listen":         "listen",
			"log-level":      "log.level",
			"storage-driver": "storage.driver",
			"storage-path":   "storage.path",
			"ephemeral":      "storage.ephemeral",
			"profile":        "favourites.key",
			"mealdb-url":     "mealdb.base_url",
		}
		for flag, key := range bindings {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	cfg := Config{
		Listen:      v.GetString("listen"),
		LogLevel:    v.GetString("log.level"),
		CORSOrigins: v.GetStringSlice("cors.origins"),
		ImageHosts:  v.GetStringSlice("image.hosts"),
		MealDB: MealDB{
			BaseURL:         v.GetString("mealdb.base_url"),
			Timeout:         v.GetDuration("mealdb.timeout"),
			RatePerSecond:   v.GetFloat64("mealdb.rate"),
			RetryMaxElapsed: v.GetDuration("mealdb.retry_max_elapsed"),
		},
		Storage: storage.Config{
			Driver:          v.GetString("storage.driver"),
			Path:            v.GetString("storage.path"),
			DSN:             v.GetString("storage.dsn"),
			Project:         v.GetString("storage.project"),
			Collection:      v.GetString("storage.collection"),
			CredentialsFile: v.GetString("storage.credentials_file"),
			Bucket:          v.GetString("storage.bucket"),
			Prefix:          v.GetString("storage.prefix"),
			Region:          v.GetString("storage.region"),
		},
		Favourites: Favourites{
			Key: v.GetString("favourites.key"),
		},
	}
	// Ephemeral runs keep favourites in memory whatever driver is configured.
	if v.GetBool("storage.ephemeral") {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.Driver == "sqlite" && filepath.Ext(cfg.Storage.Path) == "" {
		cfg.Storage.Path = filepath.Join(cfg.Storage.Path, "recipebox.db")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Favourites.Key) == "" {
		errs = append(errs, errors.New("favourites.key must not be empty"))
	}
	if c.MealDB.Timeout <= 0 {
		errs = append(errs, errors.New("mealdb.timeout must be positive"))
	}
	if c.MealDB.RatePerSecond < 0 {
		errs = append(errs, errors.New("mealdb.rate must not be negative"))
	}
	switch c.Storage.Driver {
	case "memory", "file", "sqlite", "postgres", "firestore", "s3":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is invalid (valid values: memory, file, sqlite, postgres, firestore, s3)", c.Storage.Driver))
	}
	return errors.Join(errs...)
}
