package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type postedStatus struct {
	Path    string
	Payload map[string]interface{}
}

// recordingReporter stores every callback as decoded JSON.
type recordingReporter struct {
	mu     sync.Mutex
	posted []postedStatus
	// failOn makes PostStatus fail for the given status values.
	failOn map[string]error
}

func (r *recordingReporter) PostStatus(_ context.Context, callbackPath string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if status, _ := decoded["status"].(string); r.failOn[status] != nil {
		return r.failOn[status]
	}
	r.posted = append(r.posted, postedStatus{Path: callbackPath, Payload: decoded})
	return nil
}

func (r *recordingReporter) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.posted))
	for _, p := range r.posted {
		out = append(out, p.Payload["status"].(string))
	}
	return out
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

const fixedTimestamp = "2026-10-16T09:30:00Z"
