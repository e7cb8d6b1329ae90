package alert

import "time"

// WebhookConfig is the serialized form of webhooks.yaml.
type WebhookConfig struct {
	Webhooks []WebhookEndpoint `yaml:"webhooks" json:"webhooks"`
}

// WebhookEndpoint configures one alert delivery target.
type WebhookEndpoint struct {
	Name        string        `yaml:"name" json:"name"`
	URL         string        `yaml:"url" json:"url"`
	Secret      string        `yaml:"secret,omitempty" json:"secret,omitempty"`
	MinSeverity Severity      `yaml:"min_severity,omitempty" json:"min_severity,omitempty"`
	Kinds       []Kind        `yaml:"kinds,omitempty" json:"kinds,omitempty"`
	MaxRetries  int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay  time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Enabled     bool          `yaml:"enabled" json:"enabled"`
}

// Accepts reports whether the endpoint wants the alert. An empty severity
// floor or kind list accepts everything.
func (ep WebhookEndpoint) Accepts(a Alert) bool {
	if ep.MinSeverity != "" && a.Severity.rank() > ep.MinSeverity.rank() {
		return false
	}
	if len(ep.Kinds) == 0 {
		return true
	}
	for _, k := range ep.Kinds {
		if k == a.Kind {
			return true
		}
	}
	return false
}

// DeadLetter records an alert delivery that exhausted its retries.
type DeadLetter struct {
	Timestamp   time.Time `json:"timestamp"`
	WebhookName string    `json:"webhook_name"`
	URL         string    `json:"url"`
	AlertKey    string    `json:"alert_key"`
	Payload     string    `json:"payload"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
}
