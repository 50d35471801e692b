package publishers

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink kinds.
const (
	KindWebhook = "webhook"
	KindSQS     = "sqs"
	KindSNS     = "sns"
	KindPubSub  = "pubsub"
)

const defaultWebhookTimeout = 5 * time.Second

// Sink is one destination for article.saved events. Sinks are declared inline under
// publishers.sinks in the crawler config or in a separate sinks file.
type Sink struct {
	ID       string `mapstructure:"id" yaml:"id"`
	Kind     string `mapstructure:"kind" yaml:"kind"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
	// Categories limits the sink to these article categories. Empty means every category.
	Categories []string `mapstructure:"categories" yaml:"categories"`

	// Target is the webhook URL, SQS queue URL, SNS topic ARN or Pub/Sub topic id.
	Target string `mapstructure:"target" yaml:"target"`

	// AWS. Without static keys the default credential chain is used.
	Region          string `mapstructure:"region" yaml:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`

	// Pub/Sub.
	ProjectID       string `mapstructure:"project_id" yaml:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// Webhook.
	Method  string            `mapstructure:"method" yaml:"method"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	Timeout time.Duration     `mapstructure:"timeout" yaml:"timeout"`
}

// Accepts reports whether articles of category are routed to the sink.
func (s Sink) Accepts(category string) bool {
	return matchCategory(s.Categories, category)
}

func matchCategory(allowed []string, category string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, c := range allowed {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// LoadSinksFile reads a YAML (or JSON) document with a top-level sinks list.
// ${VAR} references are expanded from the environment.
func LoadSinksFile(path string) ([]Sink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	var doc struct {
		Sinks []Sink `yaml:"sinks"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode sinks file %s: %w", path, err)
	}
	if len(doc.Sinks) == 0 {
		return nil, fmt.Errorf("sinks file %s declares no sinks", path)
	}
	return doc.Sinks, nil
}

// Prepare normalizes and validates sinks and returns the enabled ones in order.
// Sink ids must be unique across the whole list, disabled entries included.
func Prepare(sinks []Sink) ([]Sink, error) {
	seen := make(map[string]struct{}, len(sinks))
	active := make([]Sink, 0, len(sinks))
	for i, raw := range sinks {
		s := raw.normalize()
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("sinks[%d]: duplicate sink id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}
		if !s.Disabled {
			active = append(active, s)
		}
	}
	return active, nil
}

// normalize trims every field, expands ${VAR} in targets and secrets and fills
// webhook defaults.
func (s Sink) normalize() Sink {
	s.ID = strings.TrimSpace(s.ID)
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	s.Target = expand(s.Target)
	s.Region = strings.TrimSpace(s.Region)
	s.AccessKeyID = expand(s.AccessKeyID)
	s.SecretAccessKey = expand(s.SecretAccessKey)
	s.ProjectID = strings.TrimSpace(s.ProjectID)
	s.CredentialsFile = expand(s.CredentialsFile)

	var cats []string
	for _, c := range s.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	s.Categories = cats

	if s.Kind == KindWebhook {
		s.Method = strings.ToUpper(strings.TrimSpace(s.Method))
		if s.Method == "" {
			s.Method = "POST"
		}
		if s.Timeout <= 0 {
			s.Timeout = defaultWebhookTimeout
		}
	}
	headers := make(map[string]string, len(s.Headers))
	for k, v := range s.Headers {
		k, v = strings.TrimSpace(k), expand(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	s.Headers = nil
	if len(headers) > 0 {
		s.Headers = headers
	}
	return s
}

func expand(v string) string {
	return strings.TrimSpace(os.ExpandEnv(v))
}

func (s Sink) validate() error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	switch s.Kind {
	case KindWebhook:
		u, err := url.Parse(s.Target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("sink %q: target %q must be an absolute http(s) URL", s.ID, s.Target)
		}
	case KindSQS, KindSNS:
		if s.Target == "" || s.Region == "" {
			return fmt.Errorf("sink %q: %s needs target and region", s.ID, s.Kind)
		}
		if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
			return fmt.Errorf("sink %q: access_key_id and secret_access_key go together", s.ID)
		}
	case KindPubSub:
		if s.Target == "" || s.ProjectID == "" {
			return fmt.Errorf("sink %q: pubsub needs target and project_id", s.ID)
		}
	case "":
		return fmt.Errorf("sink %q: kind is required", s.ID)
	default:
		return fmt.Errorf("sink %q: kind %q not supported", s.ID, s.Kind)
	}
	return nil
}
