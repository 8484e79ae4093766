package config

const (
	defaultDataDir               = "~/.local/share/smartpress"
	defaultOutputDir             = "~/.local/share/smartpress/compressed"
	defaultLogDir                = "~/.local/share/smartpress/logs"
	defaultBackendBaseURL        = "http://localhost:8000"
	defaultBackendRequestTimeout = 300
	defaultBackendAnalyzeTimeout = 600
	defaultServerBind            = "127.0.0.1:8000"
	defaultServerUploadDir       = "~/.local/share/smartpress/server/uploads"
	defaultServerProcessedDir    = "~/.local/share/smartpress/server/processed"
	defaultServerMaxUploadMiB    = 2048
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds     = 600
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Backend: Backend{
			BaseURL:               defaultBackendBaseURL,
			RequestTimeoutSeconds: defaultBackendRequestTimeout,
			AnalyzeTimeoutSeconds: defaultBackendAnalyzeTimeout,
		},
		Server: Server{
			Bind:         defaultServerBind,
			UploadDir:    defaultServerUploadDir,
			ProcessedDir: defaultServerProcessedDir,
			MaxUploadMiB: defaultServerMaxUploadMiB,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
