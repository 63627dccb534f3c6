package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	// PayFast merchant credentials. These are read once here and handed to
	// payments.NewClient; nothing else in the app touches them.
	PayFast struct {
		MerchantID  string `yaml:"merchant_id"`
		MerchantKey string `yaml:"merchant_key"`
		Passphrase  string `yaml:"passphrase"`
		Sandbox     bool   `yaml:"sandbox"`
		ReturnURL   string `yaml:"return_url"`
		CancelURL   string `yaml:"cancel_url"`
		NotifyURL   string `yaml:"notify_url"`
	} `yaml:"payfast"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config/config.yaml, or falls back to environment
// variables when DATABASE_URL is set (test/CI mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment variables")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = getEnv("SMTP_HOST", "smtp.test.com")
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = getEnv("FROM_EMAIL", "noreply@capebizconnect.co.za")
	cfg.Email.FromName = "CapeBiz Connect"

	cfg.PayFast.MerchantID = getEnv("PAYFAST_MERCHANT_ID", "10000100")
	cfg.PayFast.MerchantKey = getEnv("PAYFAST_MERCHANT_KEY", "46f0cd694581a")
	cfg.PayFast.Passphrase = os.Getenv("PAYFAST_PASSPHRASE")
	cfg.PayFast.Sandbox = getEnv("PAYFAST_SANDBOX", "true") == "true"
	cfg.PayFast.ReturnURL = getEnv("PAYFAST_RETURN_URL", "http://localhost:8080/api/v1/payments/success")
	cfg.PayFast.CancelURL = getEnv("PAYFAST_CANCEL_URL", "http://localhost:8080/api/v1/payments/cancel")
	cfg.PayFast.NotifyURL = getEnv("PAYFAST_NOTIFY_URL", "http://localhost:8080/api/v1/payments/notify")

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	AppConfig = &cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
