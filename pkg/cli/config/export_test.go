package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, path string) *Repository {
	return &Repository{backend: backend, path: path}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(apiKey, projectID, location, chatEngine string) *Gemini {
	return &Gemini{apiKey: apiKey, projectID: projectID, location: location, chatEngine: chatEngine}
}

func NewAppForTest(path string) *App {
	return &App{path: path}
}
