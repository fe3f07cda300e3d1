package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voicebot"},
		Redis:  RedisConfig{Host: "localhost"},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Twilio: TwilioConfig{AccountSID: "AC1", AuthToken: "tok", MessagingServiceSID: "MG1"},
		LLM:    LLMConfig{AWSRegion: "us-east-1", ResponseModel: "anthropic.claude-3-haiku"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_ENV", "DB_HOST", "JWT_SECRET", "TWILIO_ACCOUNT_SID", "CLAUDE_MODEL_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got %v", want, err)
		}
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "voicebot"
	c.Auth.JWTAudience = "ops"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Redis.Port != 6379 {
		t.Fatalf("expected redis port default, got %d", c.Redis.Port)
	}
	if c.LLM.Provider != ProviderBedrock || c.LLM.IntentModel != c.LLM.ResponseModel {
		t.Fatalf("unexpected llm defaults: %+v", c.LLM)
	}
	if c.Dialog.OTPTTL != 5*time.Minute || c.Dialog.SessionStore != SessionStoreRedis || c.Dialog.TelephonyFormat != FormatJSON {
		t.Fatalf("unexpected dialog defaults: %+v", c.Dialog)
	}
	if c.Routing.WorkspaceName != "Financial Voice Bot Workspace" {
		t.Fatalf("unexpected workspace name %q", c.Routing.WorkspaceName)
	}
}

func TestValidate_MemoryStoreRejectedInProduction(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "voicebot"
	c.Auth.JWTAudience = "ops"
	c.Dialog.SessionStore = SessionStoreMemory
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "SESSION_STORE") {
		t.Fatalf("expected session store error, got %v", err)
	}
}

func TestValidate_ProviderKeys(t *testing.T) {
	c := validLocal()
	c.LLM.Provider = ProviderOpenAI
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected openai key error, got %v", err)
	}
	c = validLocal()
	c.LLM.Provider = "gemini"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestCallbackURL(t *testing.T) {
	c := Config{Routing: RoutingConfig{Host: "https://bot.example.com"}}
	if got := c.CallbackURL("/assignment"); got != "https://bot.example.com/assignment" {
		t.Fatalf("unexpected callback url %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" +911, ,+912 ")
	if len(got) != 2 || got[0] != "+911" || got[1] != "+912" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestValidate_PoolDefaults(t *testing.T) {
	c := validLocal()
	c.DB.MaxIdleConns = 50
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.MaxOpenConns != 10 || c.DB.MaxIdleConns != 10 {
		t.Fatalf("unexpected pool sizes: open=%d idle=%d", c.DB.MaxOpenConns, c.DB.MaxIdleConns)
	}
	if c.DB.ConnMaxLifetime != 30*time.Minute || c.DB.StatementTimeout != 5*time.Second {
		t.Fatalf("unexpected pool timings: %+v", c.DB)
	}
	pool := c.PostgresPool()
	if pool.MaxOpenConns != 10 || pool.StatementTimeout != 5*time.Second {
		t.Fatalf("pool config not carried over: %+v", pool)
	}

	c = validLocal()
	c.DB.MaxOpenConns = -1
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_MAX_OPEN_CONNS") {
		t.Fatalf("expected negative pool size rejected, got %v", err)
	}
}
