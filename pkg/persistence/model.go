// Package persistence handles mapping and YAML serialization of session transcripts
package persistence

type Transcript struct {
	// Stage is the last stage the session completed. Transcripts without
	// one were written by complete sessions.
	Stage    string `yaml:"stage,omitempty"`
	Error    string `yaml:"error,omitempty"`
	Agent    Agent
	ThreadID string `yaml:"thread_id"`
	Question Message
	Run      Run

	Messages []Message
	Steps    []Step `yaml:"steps,omitempty"`
	Deleted  bool
}

type Agent struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Model string `yaml:"model,omitempty"`
}

type Run struct {
	ID           string `yaml:"id"`
	Status       string `yaml:"status"`
	ErrorCode    string `yaml:"error_code,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`
}

type Message struct {
	ID        string     `yaml:"id"`
	Role      string     `yaml:"role"`
	Content   string     `yaml:"content,omitempty"`
	Citations []Citation `yaml:"citations,omitempty"`
}

type Citation struct {
	Title string `yaml:"title,omitempty"`
	URL   string `yaml:"url"`
}

type Step struct {
	ID        string   `yaml:"id"`
	Status    string   `yaml:"status"`
	ToolCalls []string `yaml:"tool_calls,omitempty"`
}
