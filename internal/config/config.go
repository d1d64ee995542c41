// Package config loads service configuration from config.yaml plus
// environment variable overrides.
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	HTTPServer HTTPServer
	Store      Store
	Database   Database
	GitHub     GitHub
	Jira       Jira
	Providers  Providers
	Review     Review
	Tracing    Tracing
}

// Tracing toggles OpenTelemetry span emission for workflow events.
type Tracing struct {
	Enabled bool
}

type HTTPServer struct {
	Address string
	Port    int
}

// Store selects the workflow state backend: memory, sqlite, or mysql.
type Store struct {
	Backend    string
	SQLitePath string
	MySQLDSN   string
}

// Database is the Postgres instance holding the pgvector code index.
type Database struct {
	URL     string
	Enabled bool
}

type GitHub struct {
	Token         string
	WebhookSecret string
}

type Jira struct {
	BaseURL    string
	Email      string
	APIToken   string
	ProjectKey string
}

// Providers holds LLM credentials. Each reviewer dimension names the
// provider backing it; unset keys leave that provider unavailable.
type Providers struct {
	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string
	Model        string
}

type Review struct {
	TimeoutSeconds int
	RAGTopK        int
}

// MustLoad reads ./config/config.yaml, applies CODEGUARD_* environment
// overrides, and exits on a malformed file. A missing file is fine, defaults
// and environment cover everything.
func MustLoad() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("codeguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("env", "dev")

	viper.SetDefault("http_server.address", "0.0.0.0")
	viper.SetDefault("http_server.port", 8080)

	viper.SetDefault("store.backend", "sqlite")
	viper.SetDefault("store.sqlite_path", "./codeguard.db")
	viper.SetDefault("store.mysql_dsn", "")

	viper.SetDefault("database.url", "")

	viper.SetDefault("github.token", "")
	viper.SetDefault("github.webhook_secret", "")

	viper.SetDefault("jira.base_url", "")
	viper.SetDefault("jira.email", "")
	viper.SetDefault("jira.api_token", "")
	viper.SetDefault("jira.project_key", "CG")

	viper.SetDefault("providers.openai_key", "")
	viper.SetDefault("providers.anthropic_key", "")
	viper.SetDefault("providers.google_key", "")
	viper.SetDefault("providers.model", "gpt-4o")

	viper.SetDefault("review.timeout_seconds", 120)
	viper.SetDefault("review.rag_top_k", 5)

	viper.SetDefault("tracing.enabled", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	return &Config{
		Env: viper.GetString("env"),
		HTTPServer: HTTPServer{
			Address: viper.GetString("http_server.address"),
			Port:    viper.GetInt("http_server.port"),
		},
		Store: Store{
			Backend:    viper.GetString("store.backend"),
			SQLitePath: viper.GetString("store.sqlite_path"),
			MySQLDSN:   viper.GetString("store.mysql_dsn"),
		},
		Database: Database{
			URL:     viper.GetString("database.url"),
			Enabled: viper.GetString("database.url") != "",
		},
		GitHub: GitHub{
			Token:         viper.GetString("github.token"),
			WebhookSecret: viper.GetString("github.webhook_secret"),
		},
		Jira: Jira{
			BaseURL:    viper.GetString("jira.base_url"),
			Email:      viper.GetString("jira.email"),
			APIToken:   viper.GetString("jira.api_token"),
			ProjectKey: viper.GetString("jira.project_key"),
		},
		Providers: Providers{
			OpenAIKey:    viper.GetString("providers.openai_key"),
			AnthropicKey: viper.GetString("providers.anthropic_key"),
			GoogleKey:    viper.GetString("providers.google_key"),
			Model:        viper.GetString("providers.model"),
		},
		Review: Review{
			TimeoutSeconds: viper.GetInt("review.timeout_seconds"),
			RAGTopK:        viper.GetInt("review.rag_top_k"),
		},
		Tracing: Tracing{
			Enabled: viper.GetBool("tracing.enabled"),
		},
	}
}
