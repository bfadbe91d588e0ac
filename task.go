package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/swarm/agent"
	"github.com/kadirpekel/swarm/config"
	"github.com/kadirpekel/swarm/logger"
	"github.com/kadirpekel/swarm/observability"
	"github.com/kadirpekel/swarm/protocol"
)

// ============================================================================
// TASK SCHEDULER
// ============================================================================

// DefaultTickInterval is how long the pump sleeps on an empty queue
const DefaultTickInterval = 100 * time.Millisecond

// historyFileName is the per-task snapshot written under the data dir
const historyFileName = "message_history.json"

// Task is a cooperative scheduler pumping messages between agents until
// one of them addresses the user, the queue drains, or the iteration
// budget runs out. Empty ticks count toward the budget.
type Task struct {
	id            string
	coordinator   string
	roster        *Roster
	dataDir       string
	maxIterations int
	tickInterval  time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	queue   []*protocol.Message
	history []*protocol.Message
}

// NewTask creates a scheduler for one task over the given roster
func NewTask(id string, roster *Roster, cfg config.SwarmConfig) *Task {
	if cfg.Coordinator == "" {
		cfg.Coordinator = config.DefaultCoordinator
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = config.DefaultMaxIterations
	}

	return &Task{
		id:            id,
		coordinator:   cfg.Coordinator,
		roster:        roster,
		dataDir:       cfg.DataDir,
		maxIterations: cfg.MaxIterations,
		tickInterval:  DefaultTickInterval,
		logger:        logger.With("task." + id),
	}
}

// TaskID returns the task identifier
func (t *Task) TaskID() string { return t.id }

// Peers returns the routing view of the roster
func (t *Task) Peers() []agent.RosterEntry { return t.roster.Entries() }

// Coordinator returns the agent that receives user messages and routing
// failure notices.
func (t *Task) Coordinator() string { return t.coordinator }

// Submit enqueues a user message addressed to the coordinator
func (t *Task) Submit(content any) *protocol.Message {
	msg := protocol.New(protocol.UserName, t.coordinator, content,
		protocol.WithTaskID(t.id))
	t.Post(msg)
	return msg
}

// Post enqueues an already-built message
func (t *Task) Post(msg *protocol.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, msg)
}

// History returns a copy of the processed messages so far
func (t *Task) History() []*protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*protocol.Message, len(t.history))
	copy(out, t.history)
	return out
}

// Run pumps queued messages until a terminal message addressed to the
// user is produced. Returns the terminal message.
func (t *Task) Run(ctx context.Context) (*protocol.Message, error) {
	tracer := observability.GetTracer("swarm.task")
	ctx, span := tracer.Start(ctx, observability.SpanTaskRun,
		trace.WithAttributes(attribute.String(observability.AttrTaskID, t.id)))
	defer span.End()

	start := time.Now()
	final, timedOut, err := t.run(ctx)
	observability.GetGlobalMetrics().RecordTaskRun(ctx, time.Since(start), t.historyLen(), timedOut)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("task.messages", t.historyLen()))
	span.SetStatus(codes.Ok, "")
	return final, nil
}

func (t *Task) run(ctx context.Context) (*protocol.Message, bool, error) {
	for iteration := 0; iteration < t.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, false, NewTaskError(t.id, "run", "cancelled", err)
		}

		msg := t.dequeue()
		if msg == nil {
			time.Sleep(t.tickInterval)
			continue
		}

		t.record(msg)
		t.logger.Debug("processing message",
			"sender", msg.Sender, "receiver", msg.Receiver, "iteration", iteration+1)

		if msg.Receiver == protocol.UserName {
			return msg, false, nil
		}

		if final := t.dispatch(ctx, msg); final != nil {
			return final, false, nil
		}
	}

	timeout := protocol.New(protocol.SystemName, protocol.UserName,
		fmt.Sprintf("task timeout; processed %d messages", t.historyLen()),
		protocol.WithTaskID(t.id))
	t.record(timeout)
	t.logger.Warn("task timed out", "messages", t.historyLen())
	return timeout, true, nil
}

// dispatch routes one message to its receiver. Unknown receivers are
// reported to the coordinator as system messages and agent failures as
// messages from the failing agent; a nil reply ends the task with a
// synthesized terminal message, which dispatch returns.
func (t *Task) dispatch(ctx context.Context, msg *protocol.Message) *protocol.Message {
	tracer := observability.GetTracer("swarm.task")
	ctx, span := tracer.Start(ctx, observability.SpanTaskDispatch,
		trace.WithAttributes(
			attribute.String(observability.AttrTaskID, t.id),
			attribute.String(observability.AttrMessageReceiver, msg.Receiver),
		))
	defer span.End()

	target, ok := t.roster.Get(msg.Receiver)
	if !ok {
		t.logger.Warn("unknown receiver, rerouting to coordinator",
			"receiver", msg.Receiver, "sender", msg.Sender)
		t.Post(protocol.New(protocol.SystemName, t.coordinator,
			fmt.Sprintf("agent %s not found: %s", msg.Receiver, msg.ContentString()),
			protocol.WithTaskID(t.id)))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	target.BindTask(t)
	reply, err := target.Invoke(ctx, msg)
	target.UnbindTask()

	if err != nil {
		t.logger.Error("agent invocation failed", "agent", msg.Receiver, "error", err)
		span.RecordError(err)
		t.Post(protocol.New(msg.Receiver, t.coordinator,
			fmt.Sprintf("agent %s failed: %v", msg.Receiver, err),
			protocol.WithTaskID(t.id)))
		span.SetStatus(codes.Ok, "")
		return nil
	}
	if reply == nil {
		t.logger.Debug("agent returned no reply, ending task", "agent", msg.Receiver)
		span.SetStatus(codes.Ok, "")
		return t.endTask(msg.Receiver)
	}

	t.Post(reply)
	span.SetStatus(codes.Ok, "")
	return nil
}

// endTask synthesizes and records the terminal message for an agent that
// ended the task without a reply, so Run always hands the caller a
// message.
func (t *Task) endTask(agentName string) *protocol.Message {
	final := protocol.New(protocol.SystemName, protocol.UserName,
		fmt.Sprintf("task ended by agent %s", agentName),
		protocol.WithTaskID(t.id))
	t.record(final)
	return final
}

func (t *Task) dequeue() *protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return nil
	}
	msg := t.queue[0]
	t.queue = t.queue[1:]
	return msg
}

func (t *Task) record(msg *protocol.Message) {
	t.mu.Lock()
	t.history = append(t.history, msg)
	t.mu.Unlock()

	if err := t.snapshot(); err != nil {
		t.logger.Warn("failed to snapshot history", "error", err)
	}
}

func (t *Task) historyLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}

// snapshot writes the history to <data_dir>/<task_id>/message_history.json
// atomically, via a temp file and rename.
func (t *Task) snapshot() error {
	t.mu.Lock()
	records := make([]map[string]any, len(t.history))
	for i, msg := range t.history {
		records[i] = msg.ToMap()
	}
	t.mu.Unlock()

	dir := filepath.Join(t.dataDir, t.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewTaskError(t.id, "snapshot", "creating task dir", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return NewTaskError(t.id, "snapshot", "encoding history", err)
	}

	path := filepath.Join(dir, historyFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return NewTaskError(t.id, "snapshot", "writing temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return NewTaskError(t.id, "snapshot", "renaming snapshot", err)
	}
	return nil
}
