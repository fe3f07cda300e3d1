package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"
)

// Config holds all configuration required by the API process and the CLI.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Twilio        TwilioConfig
	Routing       RoutingConfig
	LLM           LLMConfig
	Dialog        DialogConfig
	Observability ObservabilityConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool and per-statement limits; zero values take defaults in Validate().
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig covers operator tokens for the ops API.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	ValidateSignature   bool
	// PublicBaseURL is used to rebuild the signed URL behind proxies.
	PublicBaseURL string
}

type RoutingConfig struct {
	WorkspaceName string
	// Host is the public base URL TaskRouter calls back (/assignment, /events).
	Host         string
	AgentNumbers []string
}

const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type LLMConfig struct {
	Provider      string
	ResponseModel string
	IntentModel   string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
}

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	FormatJSON  = "json"
	FormatTwiML = "twiml"
)

type DialogConfig struct {
	SessionTTL          time.Duration
	OTPTTL              time.Duration
	ExternalCallTimeout time.Duration
	LockTimeout         time.Duration
	SessionStore        string
	TelephonyFormat     string
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
	ServiceName  string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	if v := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS")); v != "" {
		n, err := mustInt("DB_MAX_OPEN_CONNS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.MaxOpenConns = n
	}
	if v := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS")); v != "" {
		n, err := mustInt("DB_MAX_IDLE_CONNS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.MaxIdleConns = n
	}
	c.DB.ConnMaxLifetime = mustDuration("DB_CONN_MAX_LIFETIME")
	c.DB.StatementTimeout = mustDuration("DB_STATEMENT_TIMEOUT")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if v := strings.TrimSpace(os.Getenv("REDIS_PORT")); v != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.MessagingServiceSID = strings.TrimSpace(os.Getenv("TWILIO_MESSAGING_SERVICE_SID"))
	c.Twilio.ValidateSignature = mustBool("TWILIO_VALIDATE_SIGNATURE")
	c.Twilio.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Routing.WorkspaceName = strings.TrimSpace(os.Getenv("TASKROUTER_WORKSPACE_NAME"))
	c.Routing.Host = strings.TrimRight(strings.TrimSpace(os.Getenv("HOST")), "/")
	c.Routing.AgentNumbers = splitList(os.Getenv("AGENT_NUMBERS"))

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	c.LLM.ResponseModel = strings.TrimSpace(os.Getenv("CLAUDE_MODEL_ID"))
	c.LLM.IntentModel = strings.TrimSpace(os.Getenv("CLAUDE_INTENT_MODEL_ID"))
	c.LLM.AWSRegion = strings.TrimSpace(os.Getenv("AWS_REGION"))
	c.LLM.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	c.LLM.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	c.LLM.AWSSessionToken = os.Getenv("AWS_SESSION_TOKEN")
	c.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.LLM.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))

	c.Dialog.SessionTTL = mustDuration("SESSION_TTL")
	c.Dialog.OTPTTL = mustDuration("OTP_TTL")
	c.Dialog.ExternalCallTimeout = mustDuration("EXTERNAL_CALL_TIMEOUT")
	c.Dialog.LockTimeout = mustDuration("SESSION_LOCK_TIMEOUT")
	c.Dialog.SessionStore = strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_STORE")))
	c.Dialog.TelephonyFormat = strings.ToLower(strings.TrimSpace(os.Getenv("TELEPHONY_FORMAT")))

	c.Observability.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	c.Observability.OTLPInsecure = mustBool("OTEL_EXPORTER_OTLP_INSECURE")
	c.Observability.ServiceName = strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	if v := strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLE_RATIO")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be a number, got %q", v))
		}
		c.Observability.SampleRatio = f
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative"))
	}
	if c.DB.MaxOpenConns == 0 {
		c.DB.MaxOpenConns = 10
	}
	if c.DB.MaxIdleConns == 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		c.DB.MaxIdleConns = c.DB.MaxOpenConns
	}
	if c.DB.ConnMaxLifetime <= 0 {
		c.DB.ConnMaxLifetime = 30 * time.Minute
	}
	if c.DB.StatementTimeout <= 0 {
		// No single statement should outlast a dialog collaborator call.
		c.DB.StatementTimeout = 5 * time.Second
	}

	if c.Dialog.SessionStore == "" {
		c.Dialog.SessionStore = SessionStoreRedis
	}
	switch c.Dialog.SessionStore {
	case SessionStoreRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when SESSION_STORE=redis"))
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	case SessionStoreMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("SESSION_STORE=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be one of redis, memory, got %q", c.Dialog.SessionStore))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.MessagingServiceSID == "" {
		errs = append(errs, errors.New("TWILIO_MESSAGING_SERVICE_SID is required"))
	}

	if c.Routing.WorkspaceName == "" {
		c.Routing.WorkspaceName = "Financial Voice Bot Workspace"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderBedrock
	}
	switch c.LLM.Provider {
	case ProviderBedrock:
		if c.LLM.AWSRegion == "" {
			errs = append(errs, errors.New("AWS_REGION is required when LLM_PROVIDER=bedrock"))
		}
	case ProviderAnthropic:
		if c.LLM.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic"))
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of bedrock, anthropic, openai, got %q", c.LLM.Provider))
	}
	if c.LLM.ResponseModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL_ID is required"))
	}
	if c.LLM.IntentModel == "" {
		// The intent label is short; same model is fine when not split.
		c.LLM.IntentModel = c.LLM.ResponseModel
	}

	if c.Dialog.SessionTTL <= 0 {
		c.Dialog.SessionTTL = 30 * time.Minute
	}
	if c.Dialog.OTPTTL <= 0 {
		c.Dialog.OTPTTL = 5 * time.Minute
	}
	if c.Dialog.ExternalCallTimeout <= 0 {
		c.Dialog.ExternalCallTimeout = 8 * time.Second
	}
	if c.Dialog.LockTimeout <= 0 {
		c.Dialog.LockTimeout = 5 * time.Second
	}
	if c.Dialog.TelephonyFormat == "" {
		c.Dialog.TelephonyFormat = FormatJSON
	}
	if c.Dialog.TelephonyFormat != FormatJSON && c.Dialog.TelephonyFormat != FormatTwiML {
		errs = append(errs, fmt.Errorf("TELEPHONY_FORMAT must be one of json, twiml, got %q", c.Dialog.TelephonyFormat))
	}

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "financial-voice-bot"
	}
	if c.Observability.SampleRatio <= 0 || c.Observability.SampleRatio > 1 {
		c.Observability.SampleRatio = 1
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// PostgresPool maps DB settings onto the pool helper.
func (c Config) PostgresPool() utils.PostgresPoolConfig {
	return utils.PostgresPoolConfig{
		MaxOpenConns:     c.DB.MaxOpenConns,
		MaxIdleConns:     c.DB.MaxIdleConns,
		ConnMaxLifetime:  c.DB.ConnMaxLifetime,
		StatementTimeout: c.DB.StatementTimeout,
	}
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// CallbackURL joins the routing host with a callback path.
func (c Config) CallbackURL(path string) string {
	return c.Routing.Host + "/" + strings.TrimLeft(path, "/")
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func mustBool(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
