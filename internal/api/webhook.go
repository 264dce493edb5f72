package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/statushook/internal/alert"
	"github.com/good-yellow-bee/statushook/internal/catalog"
	"github.com/good-yellow-bee/statushook/internal/metrics"
	"github.com/good-yellow-bee/statushook/internal/replay"
	"github.com/good-yellow-bee/statushook/internal/sink"
)

// handleWebhook ingests one provider webhook delivery.
//
// Providers treat any non-2xx as a failed delivery and retry, so the status
// code is the whole contract: 200 exactly when the event is durably
// recorded (or a recognized duplicate), 400 for payloads a retry cannot
// fix, 500 when a retry might succeed.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes+1))
	if err != nil {
		JSONError(w, NewMalformedPayload("unreadable request body"))
		return
	}
	if len(raw) > MaxPayloadBytes {
		JSONError(w, NewMalformedPayload("payload exceeds size limit"))
		return
	}

	mode := s.sinks.ModeFor(parseBoolParam(r, "use_gcs"))
	normalizer := s.normalizerFor(r)
	if normalizer == nil {
		JSONError(w, NewMalformedPayload("unknown alert provider"))
		return
	}

	// The persistence phase runs on a context detached from the client
	// connection: once we commit to recording, a caller disconnect must
	// not produce a partial write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.config.PersistTimeout)
	defer cancel()

	event, err := normalizer.Normalize(raw)
	if err != nil {
		metrics.MalformedPayloads.Inc()
		// Retain the raw bytes when the active mode archives, so even
		// unparseable deliveries survive for later inspection.
		if (mode == sink.ModeObjectStore || mode == sink.ModeDual) && s.sinks.CanArchive() {
			if _, aerr := s.sinks.ArchiveRaw(ctx, raw); aerr != nil {
				log.Printf("archive malformed payload: %v", aerr)
			}
		}
		if errors.Is(err, alert.ErrMalformedPayload) {
			JSONError(w, NewMalformedPayload(err.Error()))
		} else {
			JSONError(w, NewMalformedPayload("unrecognized payload"))
		}
		return
	}

	query := catalog.Query{
		ServiceID:    r.URL.Query().Get("service_id"),
		ResourceName: event.Payload.ResourceName,
		URL:          event.Payload.URL,
	}
	serviceID, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		// Resolution trouble degrades to unresolved; the sink decides
		// whether that is acceptable for the chosen mode.
		log.Printf("service resolution failed: %v", err)
	}
	event.ServiceID = serviceID

	result, err := s.sinks.Record(ctx, event, mode)
	if err != nil {
		if errors.Is(err, sink.ErrUnresolvedService) {
			JSONError(w, NewUnresolvedService(event.Payload.ResourceName, event.Payload.URL))
			return
		}
		log.Printf("record event: %v", err)
		JSONError(w, NewSinkUnavailable("event could not be recorded"))
		return
	}

	metrics.EventsRecorded.WithLabelValues(string(event.Type), result.StorageMethod).Inc()
	OK(w, WebhookResponse{
		Success:       true,
		EventType:     event.Type,
		ServiceID:     event.ServiceID,
		StorageMethod: result.StorageMethod,
		Result:        result,
	})
}

// handleReplay re-drives the archive through the ingestion pipeline. The
// run is synchronous; the response carries the per-run summary.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if s.replayer == nil {
		JSONError(w, NewSinkUnavailable("no archive configured for replay"))
		return
	}

	opts := replay.Options{RatePerSec: s.config.ReplayRatePerSec}
	if p := parseBoolParam(r, "dev_reassign"); p != nil && *p {
		if !s.config.ReplayDevReassign {
			JSONError(w, &Error{
				Code:    ErrCodeForbidden,
				Message: "service reassignment is not enabled on this instance",
				Status:  http.StatusForbidden,
			})
			return
		}
		opts.DevReassign = true
	}

	// Replay runs on a detached context for the same reason single
	// webhooks do, with a generous ceiling for large archives.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), time.Hour)
	defer cancel()

	summary, err := s.replayer.Run(ctx, opts)
	if err != nil {
		log.Printf("replay run: %v", err)
		JSONError(w, NewSinkUnavailable("replay failed"))
		return
	}
	OK(w, summary)
}

// handleHealth reports process status and the non-secret configuration an
// operator needs to verify a deployment.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"provider":      s.config.Provider,
			"auth_disabled": s.config.AuthDisabled,
			"default_mode":  s.sinks.ModeFor(nil).String(),
			"archive":       s.sinks.CanArchive(),
		},
	})
}

// normalizerFor picks the normalizer for one request. A provider query
// parameter overrides the configured default.
func (s *Server) normalizerFor(r *http.Request) alert.Normalizer {
	name := r.URL.Query().Get("provider")
	if name == "" {
		name = s.config.Provider
	}
	n, ok := s.normalizers.Get(name)
	if !ok {
		return nil
	}
	return n
}

// parseBoolParam reads an optional boolean query parameter. nil means the
// parameter is absent or unparseable, leaving the operator default in force.
func parseBoolParam(r *http.Request, name string) *bool {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}
