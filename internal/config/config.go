package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Query settings
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Language string `yaml:"language"`

	// Chorus enables LLM-backed chorus detection for the trim window.
	Chorus bool `yaml:"chorus"`

	// Trim defaults, used when chorus detection is disabled or fails
	TrimStart    float64 `yaml:"trim_start"`
	TrimDuration float64 `yaml:"trim_duration"`

	// Overlay settings
	FontFamily   string  `yaml:"font_family"`
	TitleSize    int     `yaml:"title_size"`
	SubtitleSize int     `yaml:"subtitle_size"`
	DimOpacity   float64 `yaml:"dim_opacity"`

	// Directories
	WorkDir   string `yaml:"work_dir"`
	OutputDir string `yaml:"output_dir"`

	// OpenAI settings
	OpenAI OpenAIConfig `yaml:"openai"`

	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"log_file"`
}

// OpenAIConfig selects the models used by the ranking and chorus collaborators.
type OpenAIConfig struct {
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// Load reads configuration from path, or from a discovered config file, or
// returns defaults when no file exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language:     "en",
		TrimStart:    25,
		TrimDuration: 20,
		TitleSize:    48,
		SubtitleSize: 24,
		DimOpacity:   0.6,
		WorkDir:      "./downloads",
		OutputDir:    "./output",
		OpenAI: OpenAIConfig{
			ChatModel:      "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		LogFile: "output.log",
	}
}

// APIKey returns the OpenAI API key from the environment.
func APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func findConfigFile() string {
	candidates := []string{
		"./chorusclip.yaml",
		"./chorusclip.yml",
		filepath.Join(os.Getenv("HOME"), ".chorusclip", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
