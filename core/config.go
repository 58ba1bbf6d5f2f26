package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	// RecordsConfig holds the defaults applied when profiles are provisioned.
	RecordsConfig struct {
		RegistrationPrefix  string
		InstructorPrefix    string
		AdministratorPrefix string
		DefaultDepartment   string
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string
		Database         DatabaseConfig
		Server           ServerConfig
		Records          RecordsConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the configuration for the current ENV (DEV by default).
// Values are read from the environment (prefixed with the ENV name, eg: DEV_DATABASE_NAME)
// after loading config/.env.<env> if it exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Academia")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "kd8#2w!m-7u1z@v4x&q9o0p3r6t5y+s=n(b)c$e%f^g*h")
	conf.SetDefault("defaultFromName", "Academia")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "academia")
	conf.SetDefault("database.user", "academia")
	conf.SetDefault("database.password", "academia")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "postgres")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.maxOpenConns", 10)

	conf.SetDefault("server.host", "0.0.0.0:8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 5*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("records.registrationPrefix", "STU")
	conf.SetDefault("records.instructorPrefix", "PROF")
	conf.SetDefault("records.administratorPrefix", "ADM")
	conf.SetDefault("records.defaultDepartment", "General")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	case "QA", "PROD":
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, ok := projectRoot(); ok {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:   conf.GetString("appName"),
		Env:       env,
		Build:     conf.GetString("build"),
		Debug:     conf.GetBool("debug"),
		TestMode:  conf.GetBool("testMode"),
		SecretKey: conf.GetString("secretKey"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("defaultFromName"),
			Address: conf.GetString("defaultFromEmail"),
		},
		RollbarToken:   conf.GetString("rollbarToken"),
		SendgridApiKey: conf.GetString("sendgridApiKey"),
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
			MaxOpenConns:  conf.GetInt("database.maxOpenConns"),
		},
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			DebugHost:          conf.GetString("server.debugHost"),
			ReadTimeout:        conf.GetDuration("server.readTimeout"),
			WriteTimeout:       conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Records: RecordsConfig{
			RegistrationPrefix:  conf.GetString("records.registrationPrefix"),
			InstructorPrefix:    conf.GetString("records.instructorPrefix"),
			AdministratorPrefix: conf.GetString("records.administratorPrefix"),
			DefaultDepartment:   conf.GetString("records.defaultDepartment"),
		},
	}
}
