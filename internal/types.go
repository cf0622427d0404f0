package internal

import "time"

// Run statuses recorded for every document translation.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// TranslationRun is the audit record of one document translation.
type TranslationRun struct {
	ID         string        `json:"id"`
	SourceURL  string        `json:"source_url"`
	TargetURL  string        `json:"target_url,omitempty"`
	TargetLang string        `json:"target_lang"`
	Backend    string        `json:"backend"`
	Status     string        `json:"status"`
	Stage      string        `json:"stage,omitempty"`
	Error      string        `json:"error,omitempty"`
	Blocks     int           `json:"blocks"`
	Duration   time.Duration `json:"duration"`
	Timestamp  time.Time     `json:"timestamp"`
}
