package config

import "time"

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig   `koanf:"server"   validate:"required"`
	Ollama   OllamaConfig   `koanf:"ollama"   validate:"required"`
	Analyzer AnalyzerConfig `koanf:"analyzer" validate:"required"`
	RAG      RAGConfig      `koanf:"rag"      validate:"required"`
	Sessions SessionConfig  `koanf:"sessions" validate:"required"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string   `koanf:"host"         validate:"required"        env:"SERVER_HOST"`
	Port        int      `koanf:"port"         validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled bool     `koanf:"cors_enabled"                            env:"SERVER_CORS_ENABLED"`
	CORSOrigins []string `koanf:"cors_origins"                            env:"CORS_ORIGINS"`
}

// OllamaConfig configures the outbound model service.
type OllamaConfig struct {
	BaseURL     string        `koanf:"base_url"    validate:"required,url" env:"OLLAMA_BASE_URL"`
	Model       string        `koanf:"model"       validate:"required"     env:"OLLAMA_MODEL"`
	Timeout     time.Duration `koanf:"timeout"     validate:"gt=0"         env:"OLLAMA_TIMEOUT"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"  env:"OLLAMA_TEMPERATURE"`
	TopP        float64       `koanf:"top_p"       validate:"gte=0,lte=1"  env:"OLLAMA_TOP_P"`
	NumPredict  int           `koanf:"num_predict" validate:"gt=0"         env:"OLLAMA_NUM_PREDICT"`
	Seed        int           `koanf:"seed"                                env:"OLLAMA_SEED"`
}

// AnalyzerConfig configures the per-question retrieval and parse pipeline.
type AnalyzerConfig struct {
	ChunkSize     int           `koanf:"chunk_size"     validate:"gt=0"          env:"CHUNK_SIZE"`
	ChunkOverlap  int           `koanf:"chunk_overlap"  validate:"gte=0"         env:"CHUNK_OVERLAP"`
	TopKText      int           `koanf:"top_k_text"     validate:"gt=0"          env:"TOP_K_TEXT"`
	TopKTable     int           `koanf:"top_k_table"    validate:"gt=0"          env:"TOP_K_TABLE"`
	ParseAttempts int           `koanf:"parse_attempts" validate:"min=1,max=10"  env:"PARSE_ATTEMPTS"`
	ParseDelay    time.Duration `koanf:"parse_delay"    validate:"gte=0"         env:"PARSE_DELAY"`
}

// RAGConfig configures the chat-over-document feature.
type RAGConfig struct {
	ChunkSize    int `koanf:"chunk_size"    validate:"gt=0"  env:"RAG_CHUNK_SIZE"`
	ChunkOverlap int `koanf:"chunk_overlap" validate:"gte=0" env:"RAG_CHUNK_OVERLAP"`
	SimilarityK  int `koanf:"similarity_k"  validate:"gt=0"  env:"RAG_SIMILARITY_K"`
}

// SessionConfig bounds the in-memory chat session store.
type SessionConfig struct {
	MaxEntries int           `koanf:"max_entries" validate:"gt=0" env:"SESSION_MAX_ENTRIES"`
	TTL        time.Duration `koanf:"ttl"         validate:"gt=0" env:"SESSION_TTL"`
}

// Default returns the built-in configuration, overridable via environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSEnabled: true,
			CORSOrigins: []string{"http://localhost:8501"},
		},
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "deepseek-r1:8b",
			Timeout:     300 * time.Second,
			Temperature: 0.1,
			TopP:        0.9,
			NumPredict:  1024,
			Seed:        42,
		},
		Analyzer: AnalyzerConfig{
			ChunkSize:     1000,
			ChunkOverlap:  150,
			TopKText:      10,
			TopKTable:     5,
			ParseAttempts: 3,
			ParseDelay:    200 * time.Millisecond,
		},
		RAG: RAGConfig{
			ChunkSize:    800,
			ChunkOverlap: 100,
			SimilarityK:  4,
		},
		Sessions: SessionConfig{
			MaxEntries: 128,
			TTL:        time.Hour,
		},
	}
}
