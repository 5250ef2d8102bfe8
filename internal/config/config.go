// Package config loads plumber configuration from YAML with environment
// overrides. A missing config file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all plumber configuration.
type Config struct {
	// Cloud identifies the Google Cloud project and location operations
	// run against.
	Cloud CloudConfig `yaml:"cloud"`

	// LLM configures the Gemini model used for template selection.
	LLM LLMConfig `yaml:"llm"`

	// Lint configures the formatting/linting dispatcher.
	Lint LintConfig `yaml:"lint"`

	// Dataflow configures pipeline launching.
	Dataflow DataflowConfig `yaml:"dataflow"`

	// Dataproc configures template repository management.
	Dataproc DataprocConfig `yaml:"dataproc"`

	// Execution bounds external commands.
	Execution ExecutionConfig `yaml:"execution"`
}

// CloudConfig identifies the target Google Cloud project.
type CloudConfig struct {
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// LintConfig configures the lint dispatcher.
type LintConfig struct {
	// AgentsRoot is the directory that --agent names resolve under.
	AgentsRoot string `yaml:"agents_root"`

	// Python is the interpreter used to install missing tools.
	Python string `yaml:"python"`

	// MaxLineLength is passed to flake8.
	MaxLineLength int `yaml:"max_line_length"`
}

// DataflowConfig configures pipeline launching and template submission.
type DataflowConfig struct {
	Region         string `yaml:"region"`
	StagingBucket  string `yaml:"staging_bucket"`
	TemplateGitURL string `yaml:"template_git_url"`
	LaunchTimeout  string `yaml:"launch_timeout"`
}

// DataprocConfig configures the template repository.
type DataprocConfig struct {
	TemplateGitURL string `yaml:"template_git_url"`
	RepoDir        string `yaml:"repo_dir"`
	TempDir        string `yaml:"temp_dir"`
}

// ExecutionConfig bounds external command execution.
type ExecutionConfig struct {
	DefaultTimeout string `yaml:"default_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			Location: "us-central1",
		},
		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "120s",
		},
		Lint: LintConfig{
			AgentsRoot:    "agents",
			Python:        "python3",
			MaxLineLength: 88,
		},
		Dataflow: DataflowConfig{
			Region:         "us-central1",
			TemplateGitURL: "https://github.com/GoogleCloudPlatform/DataflowTemplates",
			LaunchTimeout:  "15m",
		},
		Dataproc: DataprocConfig{
			TemplateGitURL: "https://github.com/GoogleCloudPlatform/dataproc-templates",
			RepoDir:        filepath.Join(".plumber", "sources", "dataproc-templates"),
			TempDir:        filepath.Join(".plumber", "temp"),
		},
		Execution: ExecutionConfig{
			DefaultTimeout: "10m",
		},
	}
}

// Load loads configuration from a YAML file.
// Returns defaults if the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Cloud.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.Cloud.Location = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("PLUMBER_AGENTS_ROOT"); v != "" {
		c.Lint.AgentsRoot = v
	}
	if v := os.Getenv("PLUMBER_STAGING_BUCKET"); v != "" {
		c.Dataflow.StagingBucket = v
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetLaunchTimeout returns the Dataflow launch timeout as a duration.
func (c *Config) GetLaunchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Dataflow.LaunchTimeout)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetExecutionTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}
