package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", c.Server.Port)
	}
	if c.Forecast.HorizonDays != 10 || c.Forecast.HistoryDays != 30 {
		t.Fatalf("unexpected forecast window %d/%d", c.Forecast.HorizonDays, c.Forecast.HistoryDays)
	}
	if c.Model.Type != "xgboost" || c.Model.Timeout != 3*time.Second {
		t.Fatalf("unexpected model defaults %+v", c.Model)
	}
	if c.Features.StrictOneHot {
		t.Fatalf("strict one-hot must default to false")
	}
	if c.Kafka.RequiredAcks != -1 {
		t.Fatalf("expected required_acks -1, got %d", c.Kafka.RequiredAcks)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	yml := `
environment: prod
server:
  port: 8081
features:
  strict_one_hot: true
forecast:
  horizon_days: 14
  timezone: UTC
`
	c, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 8081 || !c.Features.StrictOneHot || c.Forecast.HorizonDays != 14 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	loc, err := c.Forecast.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC location, got %v (%v)", loc, err)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"model type":     "model:\n  type: onnx\n",
		"remote no url":  "model:\n  type: remote\n",
		"backend":        "backend:\n  type: postgres\n",
		"kafka brokers":  "backend:\n  type: kafka\n",
		"horizon":        "forecast:\n  horizon_days: 0\n",
		"timezone":       "forecast:\n  timezone: Mars/Olympus\n",
		"malformed yaml": "server: [",
	}
	for name, yml := range cases {
		if _, err := Parse([]byte(yml)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MODEL_SERVICE_URL", "http://model:8500")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("HTTP_PORT", "9090")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Model.Type != "remote" || c.Model.ServiceURL != "http://model:8500" {
		t.Fatalf("model env override not applied: %+v", c.Model)
	}
	if c.Cache.Redis.Host != "cache" || c.Cache.Redis.Port != 6380 {
		t.Fatalf("redis env override not applied: %+v", c.Cache.Redis)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port env override not applied: %d", c.Server.Port)
	}
}
