package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr = ":8080"

	defaultMaxItems           = "20"
	defaultMaxQuantityPerItem = "10"
	defaultMinRentalDays      = "1"
	defaultMaxRentalDays      = "90"
	defaultAllowSameDay       = "false"
	defaultRequirePeriod      = "false"

	defaultFreeDeliveryThreshold = "50000"
	defaultDeliveryFee           = "15000"
	defaultSetupPercent          = "10"
	defaultSetupMinFee           = "10000"
	defaultSupportFeePerDay      = "5000"

	defaultAutosaveInterval     = "30s"
	defaultErrorDisplayDuration = "5s"
	defaultKVPollInterval       = "2s"
)

// Config carries the cart limits, pricing fees and timer periods.
// All monetary values are whole currency units.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	MaxItems            int
	MaxQuantityPerItem  int
	MinRentalDays       int
	MaxRentalDays       int
	AllowSameDayRental  bool
	RequireRentalPeriod bool

	FreeDeliveryThreshold int64
	DeliveryFee           int64
	SetupPercent          int64
	SetupMinFee           int64
	SupportFeePerDay      int64

	AutosaveInterval     time.Duration
	ErrorDisplayDuration time.Duration
	KVPollInterval       time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	var err error
	if cfg.MaxItems, err = parseIntEnv("CART_MAX_ITEMS", defaultMaxItems); err != nil {
		return nil, err
	}
	if cfg.MaxQuantityPerItem, err = parseIntEnv("CART_MAX_QUANTITY_PER_ITEM", defaultMaxQuantityPerItem); err != nil {
		return nil, err
	}
	if cfg.MinRentalDays, err = parseIntEnv("CART_MIN_RENTAL_DAYS", defaultMinRentalDays); err != nil {
		return nil, err
	}
	if cfg.MaxRentalDays, err = parseIntEnv("CART_MAX_RENTAL_DAYS", defaultMaxRentalDays); err != nil {
		return nil, err
	}
	cfg.AllowSameDayRental = parseBoolEnv("CART_ALLOW_SAME_DAY", defaultAllowSameDay)
	cfg.RequireRentalPeriod = parseBoolEnv("CART_REQUIRE_RENTAL_PERIOD", defaultRequirePeriod)

	if cfg.FreeDeliveryThreshold, err = parseMoneyEnv("PRICING_FREE_DELIVERY_THRESHOLD", defaultFreeDeliveryThreshold); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = parseMoneyEnv("PRICING_DELIVERY_FEE", defaultDeliveryFee); err != nil {
		return nil, err
	}
	if cfg.SetupPercent, err = parseMoneyEnv("PRICING_SETUP_PERCENT", defaultSetupPercent); err != nil {
		return nil, err
	}
	if cfg.SetupMinFee, err = parseMoneyEnv("PRICING_SETUP_MIN_FEE", defaultSetupMinFee); err != nil {
		return nil, err
	}
	if cfg.SupportFeePerDay, err = parseMoneyEnv("PRICING_SUPPORT_FEE_PER_DAY", defaultSupportFeePerDay); err != nil {
		return nil, err
	}

	if cfg.AutosaveInterval, err = parseDurationEnv("CART_AUTOSAVE_INTERVAL", defaultAutosaveInterval); err != nil {
		return nil, err
	}
	if cfg.ErrorDisplayDuration, err = parseDurationEnv("CART_ERROR_DISPLAY_DURATION", defaultErrorDisplayDuration); err != nil {
		return nil, err
	}
	if cfg.KVPollInterval, err = parseDurationEnv("KV_POLL_INTERVAL", defaultKVPollInterval); err != nil {
		return nil, err
	}

	if cfg.MinRentalDays < 1 || cfg.MaxRentalDays < cfg.MinRentalDays {
		return nil, fmt.Errorf("config: invalid rental day bounds [%d, %d]", cfg.MinRentalDays, cfg.MaxRentalDays)
	}
	if cfg.MaxQuantityPerItem < 1 || cfg.MaxItems < 1 {
		return nil, fmt.Errorf("config: cart limits must be positive")
	}

	return cfg, nil
}

// Default returns the built-in configuration, used by tests.
func Default() *Config {
	return &Config{
		MaxItems:              20,
		MaxQuantityPerItem:    10,
		MinRentalDays:         1,
		MaxRentalDays:         90,
		AllowSameDayRental:    false,
		RequireRentalPeriod:   false,
		FreeDeliveryThreshold: 50000,
		DeliveryFee:           15000,
		SetupPercent:          10,
		SetupMinFee:           10000,
		SupportFeePerDay:      5000,
		AutosaveInterval:      30 * time.Second,
		ErrorDisplayDuration:  5 * time.Second,
		KVPollInterval:        2 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key, fallback string) (int, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, raw, err)
	}
	return v, nil
}

func parseMoneyEnv(key, fallback string) (int64, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an amount: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return v, nil
}

func parseBoolEnv(key, fallback string) bool {
	raw := strings.TrimSpace(getEnv(key, fallback))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}
