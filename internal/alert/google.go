package alert

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/good-yellow-bee/statushook/internal/models"
)

// ProviderGoogleMonitoring is the registry name of the Google Cloud
// Monitoring normalizer.
const ProviderGoogleMonitoring = "google-monitoring"

// incidentPayload mirrors the Google Cloud Monitoring alert webhook shape.
// Only the fields this service extracts are declared; the full payload is
// retained raw on the resulting event.
type incidentPayload struct {
	Incident *incident `json:"incident"`
	Version  string    `json:"version"`
}

type incident struct {
	IncidentID    string    `json:"incident_id"`
	ResourceName  string    `json:"resource_name"`
	PolicyName    string    `json:"policy_name"`
	ConditionName string    `json:"condition_name"`
	StartedAt     *flexTime `json:"started_at"`
	EndedAt       *flexTime `json:"ended_at"`
	URL           string    `json:"url"`
	Summary       string    `json:"summary"`
	State         string    `json:"state"`
}

// flexTime accepts both timestamp encodings Google Monitoring has shipped:
// RFC 3339 strings and Unix epoch seconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return t.Time.UnmarshalJSON(data)
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", data)
	}
	t.Time = time.Unix(int64(secs), 0).UTC()
	return nil
}

func (t *flexTime) std() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	tt := t.Time
	return &tt
}

// GoogleMonitoring normalizes Google Cloud Monitoring uptime alert payloads.
type GoogleMonitoring struct{}

// NewGoogleMonitoring creates the Google Cloud Monitoring normalizer.
func NewGoogleMonitoring() *GoogleMonitoring {
	return &GoogleMonitoring{}
}

// Name returns the provider name.
func (g *GoogleMonitoring) Name() string {
	return ProviderGoogleMonitoring
}

// Normalize maps incident.state to the event type: OPEN means the monitored
// resource is down, CLOSED means it recovered. Any other state is treated as
// a closed, benign signal - an explicit default rather than a silent guess.
func (g *GoogleMonitoring) Normalize(raw []byte) (*models.Event, error) {
	var p incidentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Incident == nil {
		return nil, fmt.Errorf("%w: missing incident object", ErrMalformedPayload)
	}

	inc := p.Incident
	eventType := models.EventUp
	if inc.State == "OPEN" {
		eventType = models.EventDown
	}

	rawCopy := make(json.RawMessage, len(raw))
	copy(rawCopy, raw)

	return &models.Event{
		Type: eventType,
		Payload: models.EventPayload{
			IncidentID:    inc.IncidentID,
			PolicyName:    inc.PolicyName,
			ConditionName: inc.ConditionName,
			ResourceName:  inc.ResourceName,
			State:         inc.State,
			StartedAt:     inc.StartedAt.std(),
			EndedAt:       inc.EndedAt.std(),
			URL:           inc.URL,
			Summary:       inc.Summary,
			Raw:           rawCopy,
		},
	}, nil
}
