// Package scenario defines security-log simulations: request logs with an
// intent statement that the classification oracle judges as a single claim.
package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/proofpilot/internal/model"
)

// ErrNotFound is returned when a scenario ID is unknown
var ErrNotFound = errors.New("scenario not found")

// Request is one entry of a simulated access log
type Request struct {
	Timestamp      time.Time         `json:"timestamp" yaml:"timestamp"`
	IP             string            `json:"ip,omitempty" yaml:"ip,omitempty"`
	Method         string            `json:"method" yaml:"method"`
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	StatusCode     int               `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	ResponseTimeMS int               `json:"response_time_ms,omitempty" yaml:"response_time_ms,omitempty"`
	PayloadSize    int               `json:"payload_size,omitempty" yaml:"payload_size,omitempty"`
	PayloadHash    string            `json:"payload_hash,omitempty" yaml:"payload_hash,omitempty"`
}

// Header looks up a header case-insensitively
func (r Request) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// MockResponse is the canned verdict used instead of the live classifier
type MockResponse struct {
	Verdict     model.Verdict `json:"verdict" yaml:"verdict"`
	Confidence  int           `json:"confidence" yaml:"confidence"`
	Explanation string        `json:"explanation" yaml:"explanation"`
}

// SecurityScenario is a named request log with the behaviour it is meant to show
type SecurityScenario struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	Intent          string        `json:"intent" yaml:"intent"`
	Requests        []Request     `json:"requests" yaml:"requests"`
	ExpectedPersona model.Persona `json:"expected_persona" yaml:"expected_persona"`
	MockResponse    *MockResponse `json:"mock_response,omitempty" yaml:"mock_response,omitempty"`
}

// Validate checks the fields a simulation run depends on
func (s SecurityScenario) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("scenario id is required")
	}
	if strings.TrimSpace(s.Intent) == "" {
		return fmt.Errorf("scenario %s: intent is required", s.ID)
	}
	if len(s.Requests) == 0 {
		return fmt.Errorf("scenario %s: at least one request is required", s.ID)
	}
	if s.ExpectedPersona != "" {
		if _, ok := model.ParsePersona(string(s.ExpectedPersona)); !ok {
			return fmt.Errorf("scenario %s: unknown persona %q", s.ID, s.ExpectedPersona)
		}
	}
	if m := s.MockResponse; m != nil {
		if _, ok := model.ParseVerdict(string(m.Verdict)); !ok {
			return fmt.Errorf("scenario %s: unknown mock verdict %q", s.ID, m.Verdict)
		}
		if m.Confidence < 0 || m.Confidence > 100 {
			return fmt.Errorf("scenario %s: mock confidence %d out of range", s.ID, m.Confidence)
		}
	}
	return nil
}

// normalize canonicalizes persona and verdict spellings accepted by Validate
func (s *SecurityScenario) normalize() {
	if p, ok := model.ParsePersona(string(s.ExpectedPersona)); ok {
		s.ExpectedPersona = p
	}
	if s.MockResponse != nil {
		if v, ok := model.ParseVerdict(string(s.MockResponse.Verdict)); ok {
			s.MockResponse.Verdict = v
		}
	}
}

// Find returns the scenario with the given ID
func Find(scenarios []SecurityScenario, id string) (SecurityScenario, error) {
	for _, s := range scenarios {
		if strings.EqualFold(s.ID, id) {
			return s, nil
		}
	}
	return SecurityScenario{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}
