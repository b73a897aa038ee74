package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kastheco/tareas/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestList_Envelope(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "fecha", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		_, _ = io.WriteString(w, `{"message":"ok","tasks":[{"id":1,"descripcion":"A","completada":false,"prioridad":"Alta","fechaCreacion":"2025-01-01T10:00:00"}]}`)
	})

	g := NewHTTPGateway(srv.URL + "/api/")
	tasks, err := g.List(context.Background(), "fecha", "desc")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Description)
	assert.Equal(t, task.PriorityAlta, tasks[0].Priority)
}

func TestList_BareArray(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":2,"descripcion":"B"}]`)
	})

	tasks, err := NewHTTPGateway(srv.URL).List(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(2), tasks[0].ID)
}

func TestList_UndecodableBodyIsNotAServerError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>proxy page</html>`)
	})

	_, err := NewHTTPGateway(srv.URL).List(context.Background(), "", "")
	require.Error(t, err)
	assert.False(t, IsServer(err))
	assert.False(t, IsConnectivity(err))
}

func TestMutate_SendsPayloadAndReturnsMessage(t *testing.T) {
	var got map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks/batch/complete", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"message":"2 tasks completed"}`)
	})

	msg, err := NewHTTPGateway(srv.URL).BatchComplete(context.Background(), []int64{1, 2}, true)
	require.NoError(t, err)
	assert.Equal(t, "2 tasks completed", msg)
	assert.Equal(t, []any{float64(1), float64(2)}, got["ids"])
	assert.Equal(t, true, got["completed"])
}

func TestMutate_EmptyBodyIsSuccess(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	msg, err := NewHTTPGateway(srv.URL).Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestServerError_UsesBodyMessage(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"La tarea ya existe"}`)
	})

	_, err := NewHTTPGateway(srv.URL).Create(context.Background(), "x", task.PriorityMedia)
	require.Error(t, err)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "La tarea ya existe", se.Message)
	assert.Equal(t, "La tarea ya existe", UserMessage(err))
	assert.False(t, IsConnectivity(err))
}

func TestServerError_UnparsableBodyFallsBackToStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	})

	_, err := NewHTTPGateway(srv.URL).SetCompleted(context.Background(), 1, true)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Internal Server Error (500)", se.Message)
}

func TestTimeout_IsAbortError(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	g := NewHTTPGateway(srv.URL, WithListTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := g.List(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.True(t, IsConnectivity(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, UserMessage(err), "took too long")
}

func TestUnreachable_IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPGateway(url).Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsTimeout(err))
}

func TestCallerCancellation_IsNeitherTimeoutNorOutage(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewHTTPGateway(srv.URL).List(ctx, "", "")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsConnectivity(err))
}

func TestToken_SentAsBearer(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := NewHTTPGateway(srv.URL, WithToken("s3cret")).List(context.Background(), "", "")
	require.NoError(t, err)
}

func TestExport_ReturnsRawBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, "\uFEFFid;descripcion\n")
	})

	b, err := NewHTTPGateway(srv.URL).Export(context.Background(), ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFid;descripcion\n", string(b))
}
