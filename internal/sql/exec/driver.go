package exec

import (
	"context"

	"github.com/dshills/Vectra/internal/errors"
)

// Driver pumps batches through an ordered chain of operators on a single
// goroutine. Batches move strictly in production order; the driver never
// reorders one operator's input stream. Cancellation is cooperative: the
// driver checks the context and the memory governor between stage calls and
// stops invoking operators once they report finished.
type Driver struct {
	execCtx   *ExecContext
	operators []Operator
}

// NewDriver creates a driver over the chain, source first, sink-most
// operator last.
func NewDriver(execCtx *ExecContext, operators ...Operator) (*Driver, error) {
	if execCtx == nil {
		return nil, errors.New(errors.NullValueNotAllowed, "execution context is nil").
			WithWhere("Driver")
	}
	if len(operators) < 2 {
		return nil, errors.ConstructionError("Driver", "a pipeline needs a source and at least one downstream operator")
	}
	return &Driver{execCtx: execCtx, operators: operators}, nil
}

// Run drives the pipeline to completion, handing every output batch of the
// last operator to consume. It returns the first fault encountered:
// context cancellation, a governor resource fault, or a protocol fault from
// an operator.
func (d *Driver) Run(ctx context.Context, consume func(*Batch) error) error {
	logger := d.execCtx.Logger
	last := d.operators[len(d.operators)-1]

	for !last.IsFinished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.execCtx.Governor.CheckCeiling(); err != nil {
			logger.Error("memory ceiling exceeded, aborting pipeline",
				"reserved", d.execCtx.Governor.Reserved(),
				"ceiling", d.execCtx.Governor.Ceiling(),
			)
			return err
		}

		moved, err := d.pumpOnce(consume)
		if err != nil {
			return err
		}
		d.propagateFinish()

		if !moved && !last.IsFinished() {
			// Every operator is unblocked by construction, so a pass that
			// moves nothing and leaves the sink unfinished cannot make
			// progress later either.
			return errors.New(errors.InternalError, "pipeline stalled: no operator made progress").
				WithWhere("Driver")
		}
	}

	logger.Debug("pipeline finished",
		"memory_peak", d.execCtx.Governor.Peak(),
	)
	return nil
}

// pumpOnce makes one pass over the chain, moving at most one batch across
// each adjacent pair and draining the sink.
func (d *Driver) pumpOnce(consume func(*Batch) error) (bool, error) {
	moved := false

	for i := 0; i < len(d.operators)-1; i++ {
		upstream, downstream := d.operators[i], d.operators[i+1]
		if upstream.IsBlocked() || downstream.IsBlocked() {
			continue
		}
		if !downstream.NeedsInput() {
			continue
		}

		batch, err := upstream.GetOutput()
		if err != nil {
			return false, err
		}
		if batch != nil {
			if err := downstream.AddInput(batch); err != nil {
				return false, err
			}
			moved = true
		}
	}

	last := d.operators[len(d.operators)-1]
	if !last.IsBlocked() {
		batch, err := last.GetOutput()
		if err != nil {
			return false, err
		}
		if batch != nil {
			if err := consume(batch); err != nil {
				return false, err
			}
			moved = true
		}
	}
	return moved, nil
}

// propagateFinish spreads completion both ways: a finished upstream operator
// finishes its downstream (no more input will ever arrive), and a finished
// downstream finishes everything upstream of it (nothing will consume their
// output, e.g. a satisfied limit terminates the scan early).
func (d *Driver) propagateFinish() {
	for i := 0; i < len(d.operators)-1; i++ {
		up, down := d.operators[i], d.operators[i+1]
		if up.IsFinished() && down.NeedsInput() {
			down.Finish()
		}
	}
	for i := len(d.operators) - 1; i > 0; i-- {
		if d.operators[i].IsFinished() {
			for j := 0; j < i; j++ {
				d.operators[j].Finish()
			}
			break
		}
	}
}
