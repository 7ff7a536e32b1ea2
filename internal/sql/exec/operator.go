package exec

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/Vectra/internal/log"
	"github.com/dshills/Vectra/internal/sql/types"
)

// Operator is the pipeline-stage contract. A single owning goroutine drives
// a linear sequence of stage calls: it polls NeedsInput/IsBlocked/IsFinished
// to decide whether to push a batch with AddInput, pull one with GetOutput,
// or retire the operator. Operators hold no locks; nothing operator-private
// is shared across goroutines.
type Operator interface {
	// Context returns the accounting context the operator was registered with.
	Context() *OperatorContext

	// Types returns the ordered output channel types.
	Types() []types.DataType

	// NeedsInput reports whether the operator can accept a batch right now.
	// Calling AddInput when this is false is a protocol fault.
	NeedsInput() bool

	// AddInput pushes one batch into the operator.
	AddInput(b *Batch) error

	// GetOutput returns a pending output batch, or nil if none is ready.
	// Consumption is one-shot: a returned batch is no longer held.
	GetOutput() (*Batch, error)

	// IsBlocked reports whether the operator is waiting on an external
	// event. Operators with no I/O of their own are never blocked.
	IsBlocked() bool

	// Finish tells the operator no more input will arrive.
	Finish()

	// IsFinished reports whether the operator will never produce more
	// output. The driver stops invoking the operator once this is true.
	IsFinished() bool
}

// ExecContext carries the per-pipeline collaborators operators are built
// with: the memory governor and a logger scoped to the pipeline instance.
// It is used by a single goroutine during pipeline build-out.
type ExecContext struct {
	PipelineID uuid.UUID
	Governor   *MemoryGovernor
	Logger     log.Logger

	mu     sync.Mutex
	stages []*OperatorContext
}

// NewExecContext creates an execution context for one pipeline instance.
func NewExecContext(governor *MemoryGovernor, logger log.Logger) *ExecContext {
	id := uuid.New()
	if logger == nil {
		logger = log.Default()
	}
	return &ExecContext{
		PipelineID: id,
		Governor:   governor,
		Logger:     logger.With("pipeline", id.String()),
	}
}

// RegisterStage registers an operator stage and returns its accounting
// context. Stage ids are opaque; they only need to be stable for logging.
func (c *ExecContext) RegisterStage(id int, name string) *OperatorContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	opCtx := &OperatorContext{
		id:     id,
		name:   name,
		slot:   c.Governor.registerSlot(),
		logger: c.Logger.With("operator", name, "stage", id),
	}
	c.stages = append(c.stages, opCtx)
	opCtx.logger.Debug("operator registered")
	return opCtx
}

// OperatorContext is the accounting and registration collaborator handed to
// one operator instance.
type OperatorContext struct {
	id     int
	name   string
	slot   *reservationSlot
	logger log.Logger
}

// ID returns the opaque stage identifier.
func (c *OperatorContext) ID() int {
	return c.id
}

// Name returns the stage name.
func (c *OperatorContext) Name() string {
	return c.name
}

// Logger returns the stage-scoped logger.
func (c *OperatorContext) Logger() log.Logger {
	return c.logger
}

// ReportMemoryReservation publishes the operator's current memory footprint
// to the governor. Fire and forget: admission and cancellation decisions are
// made elsewhere, the operator only supplies accurate, timely measurements.
func (c *OperatorContext) ReportMemoryReservation(bytes int64) {
	c.slot.set(bytes)
}

// MemoryReservation returns the operator's last reported footprint.
func (c *OperatorContext) MemoryReservation() int64 {
	return c.slot.get()
}
