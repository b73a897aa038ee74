package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/task"
)

// fakeGateway is an in-memory Gateway that counts calls.
type fakeGateway struct {
	mu     sync.Mutex
	tasks  []task.Task
	nextID int64
	calls  map[string]int

	listErr error
	mutErr  error
	// listGate, when set, blocks List until it is closed.
	listGate chan struct{}
}

func newFakeGateway(tasks ...task.Task) *fakeGateway {
	g := &fakeGateway{calls: make(map[string]int), nextID: 1}
	for _, t := range tasks {
		g.tasks = append(g.tasks, t)
		g.nextID = max(g.nextID, t.ID+1)
	}
	return g
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGateway) hit(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	if op != "list" && g.mutErr != nil {
		return g.mutErr
	}
	return nil
}

func (g *fakeGateway) List(ctx context.Context, _, _ string) ([]task.Task, error) {
	g.mu.Lock()
	g.calls["list"]++
	gate, err := g.listGate, g.listErr
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]task.Task(nil), g.tasks...), nil
}

func (g *fakeGateway) Create(_ context.Context, desc string, p task.Priority) (string, error) {
	if err := g.hit("create"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, task.Task{ID: g.nextID, Description: desc, Priority: p, CreatedAt: task.NewTimestamp(time.Now())})
	g.nextID++
	return "", nil
}

func (g *fakeGateway) find(id int64) *task.Task {
	for i := range g.tasks {
		if g.tasks[i].ID == id {
			return &g.tasks[i]
		}
	}
	return nil
}

func (g *fakeGateway) Rename(_ context.Context, id int64, desc string) (string, error) {
	if err := g.hit("rename"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t := g.find(id); t != nil {
		t.Description = desc
	}
	return "", nil
}

func (g *fakeGateway) SetCompleted(_ context.Context, id int64, done bool) (string, error) {
	if err := g.hit("complete"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t := g.find(id); t != nil {
		t.Completed = done
	}
	return "", nil
}

func (g *fakeGateway) SetPriority(_ context.Context, id int64, p task.Priority) (string, error) {
	if err := g.hit("priority"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t := g.find(id); t != nil {
		t.Priority = p
	}
	return "", nil
}

func (g *fakeGateway) Delete(_ context.Context, id int64) (string, error) {
	if err := g.hit("delete"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remove(id)
	return "Tarea eliminada", nil
}

func (g *fakeGateway) remove(id int64) {
	for i := range g.tasks {
		if g.tasks[i].ID == id {
			g.tasks = append(g.tasks[:i], g.tasks[i+1:]...)
			return
		}
	}
}

func (g *fakeGateway) BatchDelete(_ context.Context, ids []int64) (string, error) {
	if err := g.hit("batch-delete"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.remove(id)
	}
	return "", nil
}

func (g *fakeGateway) BatchComplete(_ context.Context, ids []int64, done bool) (string, error) {
	if err := g.hit("batch-complete"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if t := g.find(id); t != nil {
			t.Completed = done
		}
	}
	return "", nil
}

func (g *fakeGateway) BatchPriority(_ context.Context, ids []int64, p task.Priority) (string, error) {
	if err := g.hit("batch-priority"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if t := g.find(id); t != nil {
			t.Priority = p
		}
	}
	return "", nil
}

func (g *fakeGateway) Export(context.Context, gateway.ExportFormat) ([]byte, error) {
	if err := g.hit("export"); err != nil {
		return nil, err
	}
	return []byte("[]"), nil
}

func (g *fakeGateway) Ping(context.Context) error { return g.hit("ping") }

var errDown = &gateway.NetworkError{Op: "list tasks", Err: errors.New("connection refused")}

type post struct {
	msg  string
	kind notify.Kind
}

// postLog records notifications.
type postLog struct {
	mu    sync.Mutex
	posts []post
}

func (p *postLog) Post(msg string, kind notify.Kind, _ time.Duration, _ ...notify.Option) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, post{msg: msg, kind: kind})
	return "id"
}

func (p *postLog) last() post {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.posts) == 0 {
		return post{}
	}
	return p.posts[len(p.posts)-1]
}

func (p *postLog) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}
