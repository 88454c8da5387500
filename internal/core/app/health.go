package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "up" once a graph is loaded and every enabled component is
// reachable, "degraded" otherwise.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	now := time.Now().UTC()
	status := HealthStatus{
		Status:     "up",
		Timestamp:  now,
		Uptime:     now.Sub(s.app.startedAt).Truncate(time.Second).String(),
		Components: make(map[string]string),
	}

	if report, ok := s.app.Engine.LastLoad(); ok {
		status.Components["graph"] = fmt.Sprintf("ok (%d nodes, %d edges, load %s)", report.Nodes, report.Edges, report.LoadID)
	} else {
		status.Status = "degraded"
		status.Components["graph"] = "no dataset loaded"
	}

	switch {
	case s.app.history != nil:
		if _, err := s.app.history.Recent(ctx, 1); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	case s.app.Config.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	default:
		status.Components["history"] = "disabled"
	}

	if s.app.Watching() {
		status.Components["watcher"] = "ok"
	} else if s.app.Config.Watch.Enabled {
		status.Components["watcher"] = "not running"
	} else {
		status.Components["watcher"] = "disabled"
	}

	return status
}
