package cmd

import (
	"testing"

	"github.com/carrec/platform/config"
	"go.uber.org/fx"
)

func loadTestConfig(t *testing.T, d serviceDefaults) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		t.Fatal(err)
	}
	applyServiceDefaults(cfg, d)
	return cfg
}

func TestPostAppGraph(t *testing.T) {
	cfg := loadTestConfig(t, serviceDefaults{name: "post-service", tag: "posts"})
	if err := fx.ValidateApp(PostAppOptions(cfg)); err != nil {
		t.Fatalf("post app graph: %v", err)
	}
}

func TestUserAppGraph(t *testing.T) {
	cfg := loadTestConfig(t, serviceDefaults{name: "user-service", tag: "users"})
	if err := fx.ValidateApp(UserAppOptions(cfg)); err != nil {
		t.Fatalf("user app graph: %v", err)
	}
}

func TestApplyServiceDefaults(t *testing.T) {
	cfg := &config.Config{}
	applyServiceDefaults(cfg, serviceDefaults{name: "user-service", tag: "users"})

	if cfg.Service.Name != "user-service" || len(cfg.Service.Tags) != 1 || cfg.Service.Tags[0] != "users" {
		t.Errorf("Service = %+v", cfg.Service)
	}
	if len(cfg.Service.InstanceID) <= len("user-service-") {
		t.Errorf("InstanceID = %q", cfg.Service.InstanceID)
	}

	cfg.Service.Name = "posts-eu"
	id := cfg.Service.InstanceID
	applyServiceDefaults(cfg, serviceDefaults{name: "post-service", tag: "posts"})
	if cfg.Service.Name != "posts-eu" || cfg.Service.InstanceID != id {
		t.Errorf("configured values overwritten: %+v", cfg.Service)
	}
}
