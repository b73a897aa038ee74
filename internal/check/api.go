package check

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kastheco/tareas/gateway"
)

// slowList is the list latency above which the API is reported as slow.
const slowList = 2 * time.Second

// auditAPI lists the tasks once and classifies the outcome.
func auditAPI(ctx context.Context, url string, gw gateway.Gateway) Section {
	s := Section{Title: "API (" + url + ")"}

	start := time.Now()
	tasks, err := gw.List(ctx, "", "")
	elapsed := time.Since(start)

	var se *gateway.ServerError
	switch {
	case err == nil:
		pending := 0
		for _, t := range tasks {
			if t.Pending() {
				pending++
			}
		}
		s.Entries = append(s.Entries, Entry{Name: "reachable", Status: StatusOK, Detail: elapsed.Round(time.Millisecond).String()})
		if elapsed > slowList {
			s.Entries[0].Status = StatusWarn
			s.Entries[0].Detail += " (slow)"
		}
		s.Entries = append(s.Entries,
			Entry{Name: "authorized", Status: StatusOK},
			Entry{Name: "tasks", Status: StatusOK, Detail: fmt.Sprintf("%d total, %d pending", len(tasks), pending)},
		)
	case errors.As(err, &se) && se.Status == http.StatusUnauthorized:
		s.Entries = append(s.Entries,
			Entry{Name: "reachable", Status: StatusOK},
			Entry{Name: "authorized", Status: StatusFail, Detail: "token missing or rejected; run tareas token"},
		)
	case gateway.IsServer(err):
		s.Entries = append(s.Entries, Entry{Name: "reachable", Status: StatusFail, Detail: err.Error()})
	default:
		s.Entries = append(s.Entries, Entry{Name: "reachable", Status: StatusFail, Detail: gateway.UserMessage(err)})
	}
	return s
}
