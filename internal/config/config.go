package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	AdminJWTSecret     string
	AdminTokenTTL      time.Duration
	OnboardingToken    string
	CORSAllowedOrigins []string
	CORSAllowedHeaders []string

	// WhatsApp Business Cloud API
	WhatsAppBaseURL       string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Outbound marketing is held during quiet hours (clinic local time)
	QuietHoursStart    string
	QuietHoursEnd      string
	QuietHoursTimezone string

	// Payment providers
	MercadoPagoBaseURL       string
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	TransbankBaseURL         string
	TransbankCommerceCode    string
	TransbankAPIKey          string
	TransbankReturnURL       string

	// Secondary integrations
	InvoicingBaseURL          string
	InvoicingAPIKey           string
	InvoicingEmitterRUT       string
	GoogleAdsBaseURL          string
	GoogleAdsDeveloperToken   string
	GoogleAdsAccessToken      string
	GoogleAdsCustomerID       string
	GoogleAdsConversionAction string

	// Jobs
	AWSRegion               string
	AWSAccessKeyID          string
	AWSSecretAccessKey      string
	AWSEndpointOverride     string
	UseMemoryQueue          bool
	JobsQueueURL            string
	PursuitInterval         time.Duration
	FlashOfferInterval      time.Duration
	RenewalInterval         time.Duration
	FlashOfferMinGapMinutes int
	FlashOfferDiscountPct   int
	BookingSlotMinutes      int
	BehaviorSessionTTL      time.Duration
	PaymentLinkBaseURL      string
	ClinicCacheTTL          time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		AdminTokenTTL:      getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		OnboardingToken:    getEnv("ONBOARDING_TOKEN", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		CORSAllowedHeaders: getEnvAsList("CORS_ALLOWED_HEADERS"),

		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clinic Growth"),

		QuietHoursStart:    getEnv("QUIET_HOURS_START", "21:00"),
		QuietHoursEnd:      getEnv("QUIET_HOURS_END", "09:00"),
		QuietHoursTimezone: getEnv("QUIET_HOURS_TZ", "America/Santiago"),

		MercadoPagoBaseURL:       getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
		MercadoPagoAccessToken:   getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
		MercadoPagoWebhookSecret: getEnv("MERCADOPAGO_WEBHOOK_SECRET", ""),
		TransbankBaseURL:         getEnv("TRANSBANK_BASE_URL", "https://webpay3gint.transbank.cl"),
		TransbankCommerceCode:    getEnv("TRANSBANK_COMMERCE_CODE", ""),
		TransbankAPIKey:          getEnv("TRANSBANK_API_KEY", ""),
		TransbankReturnURL:       getEnv("TRANSBANK_RETURN_URL", ""),

		InvoicingBaseURL:          getEnv("INVOICING_BASE_URL", ""),
		InvoicingAPIKey:           getEnv("INVOICING_API_KEY", ""),
		InvoicingEmitterRUT:       getEnv("INVOICING_EMITTER_RUT", ""),
		GoogleAdsBaseURL:          getEnv("GOOGLE_ADS_BASE_URL", "https://googleads.googleapis.com/v16"),
		GoogleAdsDeveloperToken:   getEnv("GOOGLE_ADS_DEVELOPER_TOKEN", ""),
		GoogleAdsAccessToken:      getEnv("GOOGLE_ADS_ACCESS_TOKEN", ""),
		GoogleAdsCustomerID:       getEnv("GOOGLE_ADS_CUSTOMER_ID", ""),
		GoogleAdsConversionAction: getEnv("GOOGLE_ADS_CONVERSION_ACTION", ""),

		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:     getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		UseMemoryQueue:          getEnvAsBool("USE_MEMORY_QUEUE", false),
		JobsQueueURL:            getEnv("JOBS_QUEUE_URL", ""),
		PursuitInterval:         getEnvAsDuration("PURSUIT_INTERVAL", 5*time.Minute),
		FlashOfferInterval:      getEnvAsDuration("FLASH_OFFER_INTERVAL", time.Hour),
		RenewalInterval:         getEnvAsDuration("RENEWAL_INTERVAL", 6*time.Hour),
		FlashOfferMinGapMinutes: getEnvAsInt("FLASH_OFFER_MIN_GAP_MINUTES", 60),
		FlashOfferDiscountPct:   getEnvAsInt("FLASH_OFFER_DISCOUNT_PCT", 20),
		BookingSlotMinutes:      getEnvAsInt("BOOKING_SLOT_MINUTES", 60),
		BehaviorSessionTTL:      getEnvAsDuration("BEHAVIOR_SESSION_TTL", 30*time.Minute),
		PaymentLinkBaseURL:      getEnv("PAYMENT_LINK_BASE_URL", ""),
		ClinicCacheTTL:          getEnvAsDuration("CLINIC_CACHE_TTL", 10*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
