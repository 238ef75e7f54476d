package config

import (
	"errors"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("R2_ACCOUNT", "acct123")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
}

func TestMustLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := MustLoad()
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}

	if cfg.Storage.Bucket != "images" {
		t.Fatalf("bucket default %q", cfg.Storage.Bucket)
	}
	if cfg.Production() {
		t.Fatal("default env must not be production")
	}
	if cfg.Storage.Endpoint() != "acct123.r2.cloudflarestorage.com" {
		t.Fatalf("endpoint %q", cfg.Storage.Endpoint())
	}
	if cfg.EventsEnabled() {
		t.Fatal("events must be disabled without brokers")
	}
}

func TestMustLoadMissingCredentials(t *testing.T) {
	t.Setenv("R2_ACCOUNT", "")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "")
	t.Setenv("R2_ACCESS_KEY_ID", "")
	t.Setenv("R2_SECRET_ACCESS_KEY", "")

	_, err := MustLoad()
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("want ErrConfigMissing, got %v", err)
	}
}

func TestAccountFallback(t *testing.T) {
	t.Setenv("R2_ACCOUNT", "")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "cf-acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")

	cfg, err := MustLoad()
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}
	if cfg.Storage.Account != "cf-acct" {
		t.Fatalf("account fallback not applied: %q", cfg.Storage.Account)
	}
}

func TestPublicURLFallbackAndTrim(t *testing.T) {
	setRequired(t)
	t.Setenv("R2_PUBLIC_URL", "")
	t.Setenv("NEXT_PUBLIC_R2_PUBLIC_URL", "https://pub.example.com/")

	cfg, err := MustLoad()
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}
	if cfg.Storage.PublicBaseURL != "https://pub.example.com" {
		t.Fatalf("public base %q", cfg.Storage.PublicBaseURL)
	}
}

func TestAllowedHostsParsing(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_IMAGE_HOSTS", "a.example.com,b.example.com")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := MustLoad()
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}
	if len(cfg.Storage.AllowedHosts) != 2 {
		t.Fatalf("allowed hosts %v", cfg.Storage.AllowedHosts)
	}
	if !cfg.Production() {
		t.Fatal("APP_ENV=production must enable production mode")
	}
	if !cfg.EventsEnabled() || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("kafka brokers %v", cfg.Kafka.Brokers)
	}
}
