package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// SlotPolicy decides what happens when no SlotLimit row exists for a slot.
type SlotPolicy string

const (
	SlotPolicyUnlimited  SlotPolicy = "unlimited"   // no row means no cap
	SlotPolicyDefaultCap SlotPolicy = "default-cap" // no row means the tenant-wide default cap applies
)

type Config struct {
	DBDSN          string
	HTTPAddr       string
	Environment    string
	MigrationsPath string

	LineChannelAccessToken string
	LineChannelSecret      string

	DefaultSlotPolicy   SlotPolicy
	DefaultSlotCapacity int

	ComplianceCaseInsensitive bool

	ReportFontPath string
}

func Load() (*Config, error) {
	// Load .env when present, otherwise rely on the environment as-is
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:                  os.Getenv("DB_DSN"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		Environment:            os.Getenv("ENV"),
		MigrationsPath:         os.Getenv("MIGRATIONS_PATH"),
		LineChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LineChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
		DefaultSlotPolicy:      SlotPolicy(os.Getenv("DEFAULT_SLOT_POLICY")),
		ReportFontPath:         os.Getenv("REPORT_FONT_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	switch cfg.DefaultSlotPolicy {
	case "":
		cfg.DefaultSlotPolicy = SlotPolicyUnlimited
	case SlotPolicyUnlimited, SlotPolicyDefaultCap:
	default:
		return nil, fmt.Errorf("DEFAULT_SLOT_POLICY must be %q or %q", SlotPolicyUnlimited, SlotPolicyDefaultCap)
	}

	cfg.DefaultSlotCapacity = 5
	if raw := os.Getenv("DEFAULT_SLOT_CAPACITY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("DEFAULT_SLOT_CAPACITY must be a positive integer, got %q", raw)
		}
		cfg.DefaultSlotCapacity = n
	}

	if raw := os.Getenv("COMPLIANCE_CASE_INSENSITIVE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("COMPLIANCE_CASE_INSENSITIVE must be a boolean, got %q", raw)
		}
		cfg.ComplianceCaseInsensitive = v
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}
