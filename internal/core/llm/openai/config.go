package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // provider is unconfigured when empty
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("provider", constants.ProviderOpenAI),
	}
}

func (c *Client) Name() string { return constants.ProviderOpenAI }

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }
