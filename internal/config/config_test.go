package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.Account.Username = "alice"
	cfg.Credentials.BearerToken = "token"
	return cfg
}

func TestGraceWindowParses(t *testing.T) {
	cfg := validConfig()
	d, err := cfg.GraceWindow()
	if err != nil {
		t.Fatal(err)
	}
	if d != 48*time.Hour {
		t.Fatalf("default grace window: %v", d)
	}
	cfg.Tracker.GraceWindow = "not-a-duration"
	if _, err := cfg.GraceWindow(); err == nil {
		t.Fatal("expected parse error")
	}
	cfg.Tracker.GraceWindow = "-1h"
	if _, err := cfg.GraceWindow(); err == nil {
		t.Fatal("expected error for negative window")
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.Credentials.BearerToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing-credentials error")
	}
	cfg.Credentials = CredentialsConfig{
		ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("OAuth1 set should satisfy validation: %v", err)
	}
	cfg.Account.Username = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing-username error")
	}
}
