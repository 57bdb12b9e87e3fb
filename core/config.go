package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	AppName  string
	Env      string
	// SecretKey signs the manager API tokens.
	SecretKey string
	// DataDir holds the config file, the credential store and its key material.
	DataDir string

	Client struct {
		Service string
		Timeout time.Duration
	}

	Server struct {
		Addr               string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		AdminUsername      string
		AdminPassword      string
	}

	Database struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool
	}

	RollbarToken string
}

func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}

// NewConfig loads the application configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with the env name).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "LMS Explorer")
	conf.SetDefault("secretKey", "h1d%3a!jw)p8#ln_u+x5m(&4qz0^o7$ycv9r2=gk6bfse*t-d")
	conf.SetDefault("dataDir", defaultDataDir())
	conf.SetDefault("client.service", "moodle_mobile_app")
	conf.SetDefault("client.timeout", 30*time.Second)
	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.adminUsername", "admin")
	conf.SetDefault("server.adminPassword", "")
	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "lmsexplorer")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     testMode,
		AppName:      conf.GetString("appName"),
		Env:          env,
		SecretKey:    conf.GetString("secretKey"),
		DataDir:      conf.GetString("dataDir"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
	c.Client.Service = conf.GetString("client.service")
	c.Client.Timeout = conf.GetDuration("client.timeout")
	c.Server.Addr = conf.GetString("server.addr")
	c.Server.ShutdownTimeout = conf.GetDuration("server.shutdownTimeout")
	c.Server.JWTExpirationDelta = conf.GetDuration("server.jwtExpirationDelta")
	c.Server.AdminUsername = conf.GetString("server.adminUsername")
	c.Server.AdminPassword = conf.GetString("server.adminPassword")
	c.Database.Engine = conf.GetString("database.engine")
	c.Database.Name = conf.GetString("database.name")
	c.Database.User = conf.GetString("database.user")
	c.Database.Password = conf.GetString("database.password")
	c.Database.Host = conf.GetString("database.host")
	c.Database.Port = conf.GetString("database.port")
	c.Database.DisableTLS = conf.GetBool("database.disableTLS")
	return c
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lmsexplorer"
	}
	return filepath.Join(home, ".lmsexplorer")
}
