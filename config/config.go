package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Log      LogConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port            int
	Mode            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URI     string
	Name    string
	Timeout time.Duration
}

type StoreConfig struct {
	Driver string
}

type LogConfig struct {
	Level string
}

type CORSConfig struct {
	Origins []string
}

// New returns a viper instance preloaded with defaults and environment bindings.
// Environment keys use the QUICKPOLL_ prefix, e.g. QUICKPOLL_SERVER_PORT.
// config.yaml is searched in configPaths, or the working directory when none are given.
func New(configPaths ...string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"./"}
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("quickpoll")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is what the original deployment used for the Mongo URI.
	_ = v.BindEnv("database.uri", "QUICKPOLL_DATABASE_URI", "DATABASE_URL")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.name", "quickpoll")
	v.SetDefault("database.timeout", 10*time.Second)
	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", []string{"*"})

	return v
}

// LoadDotEnv reads .env files into the process environment when they exist.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logging.Logger.WithFields(logrus.Fields{"module": "config", "method": "LoadDotEnv"}).Debug("no .env file loaded")
	}
}

// Read merges the optional config file into v and builds the Config.
func Read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	conf := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Mode:            v.GetString("server.mode"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Timeout: v.GetDuration("database.timeout"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		CORS: CORSConfig{
			Origins: v.GetStringSlice("cors.origins"),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	logging.Logger.WithFields(logrus.Fields{
		"module": "config",
		"method": "Read",
		"port":   conf.Server.Port,
		"driver": conf.Store.Driver,
	}).Info("configuration loaded")

	return conf, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return errors.New("config: database.uri is required for the mongo store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}

	return nil
}
