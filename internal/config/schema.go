package config

// Config holds lectern configuration.
// Stored at: ~/.lectern/config.yaml
type Config struct {
	LLM      LLMCfg      `mapstructure:"llm" yaml:"llm"`
	TTS      TTSCfg      `mapstructure:"tts" yaml:"tts"`
	Defaults DefaultsCfg `mapstructure:"defaults" yaml:"defaults"`
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
}

// LLMCfg configures the chat model used for metadata and summaries.
type LLMCfg struct {
	Model      string  `mapstructure:"model" yaml:"model"`             // Chat model name
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"`         // API key (supports ${ENV_VAR} syntax)
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`       // Optional API base URL override
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"`   // Requests per second
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"` // Retry attempts per call
}

// TTSCfg configures the speech synthesis provider.
type TTSCfg struct {
	Model      string  `mapstructure:"model" yaml:"model"`             // "tts-1", "tts-1-hd"
	Voice      string  `mapstructure:"voice" yaml:"voice"`             // Narration voice
	Speed      float64 `mapstructure:"speed" yaml:"speed"`             // 0.25-4.0
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"`         // API key (supports ${ENV_VAR} syntax)
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`       // Optional API base URL override
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"` // Retry attempts per call
}

// DefaultsCfg specifies pipeline defaults.
type DefaultsCfg struct {
	FrontPages      int     `mapstructure:"front_pages" yaml:"front_pages"`           // Pages sent to the metadata call
	MatchConfidence float64 `mapstructure:"match_confidence" yaml:"match_confidence"` // Fuzzy title match threshold
	MaxSummaryChars int     `mapstructure:"max_summary_chars" yaml:"max_summary_chars"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMCfg{
			Model:      "gpt-4o-mini",
			APIKey:     "${OPENAI_API_KEY}",
			RateLimit:  2.0,
			MaxRetries: 3,
		},
		TTS: TTSCfg{
			Model:      "tts-1",
			Voice:      "onyx",
			Speed:      1.0,
			APIKey:     "${OPENAI_API_KEY}",
			MaxRetries: 3,
		},
		Defaults: DefaultsCfg{
			FrontPages:      50,
			MatchConfidence: 0.6,
			MaxSummaryChars: 12000,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}
