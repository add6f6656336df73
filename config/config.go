package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"proteinid/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string
	Store    string
	Timezone string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret string
	TokenTTL  time.Duration

	USDAAPIKey   string
	USDABaseURL  string
	TranslateURL string
	HTTPTimeout  time.Duration

	AWSRegion          string
	S3Region           string
	S3Bucket           string
	CloudFrontURL      string
	SESEmail           string
	SNSFCMArn          string
	RecognitionEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("timezone", "Europe/Vilnius")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_name", "proteinid")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_ttl", "72h")
	v.SetDefault("usda_api_key", "DEMO_KEY")
	v.SetDefault("usda_base_url", "https://api.nal.usda.gov")
	v.SetDefault("translate_url", "https://api.mymemory.translated.net")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("aws_region", "eu-central-1")
	v.SetDefault("rekognition_enabled", false)
}

// Load reads the environment, after loading envFiles (".env" when none
// are given) if they exist.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		Store:    strings.ToLower(v.GetString("store")),
		Timezone: v.GetString("timezone"),

		DBHost:     v.GetString("db_host"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBPort:     v.GetString("db_port"),
		DBSSLMode:  v.GetString("db_sslmode"),

		JWTSecret: v.GetString("jwt_secret"),
		TokenTTL:  v.GetDuration("jwt_ttl"),

		USDAAPIKey:   v.GetString("usda_api_key"),
		USDABaseURL:  v.GetString("usda_base_url"),
		TranslateURL: v.GetString("translate_url"),
		HTTPTimeout:  v.GetDuration("http_timeout"),

		AWSRegion:          v.GetString("aws_region"),
		S3Region:           v.GetString("s3_region"),
		S3Bucket:           v.GetString("s3_bucket"),
		CloudFrontURL:      v.GetString("cloudfront_url"),
		SESEmail:           v.GetString("ses_email"),
		SNSFCMArn:          v.GetString("sns_fcm_arn"),
		RecognitionEnabled: v.GetBool("rekognition_enabled"),
	}
	if cfg.S3Region == "" {
		cfg.S3Region = cfg.AWSRegion
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Location is the zone "today" is computed in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func NewLogger(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "proteinid",
		Output: os.Stderr,
		Level:  hclog.LevelFromString(level),
	})
}

func OpenDB(cfg *Config, log hclog.Logger) (*gorm.DB, error) {
	gl := gormlogger.New(
		log.Named("gorm").StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gl,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.LogEntry{},
		&models.WeightEntry{},
		&models.UserDevice{},
	); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return nil
}

func LoadAWS(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("AWS config load failed: %w", err)
	}
	return cfg, nil
}
