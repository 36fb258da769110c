package fulfillment

import (
	"context"
	"time"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/ports"
	"github.com/retailops/ticketworker/internal/shared/contracts"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/metrics"
)

// Result is the outcome of one message. Err is set only for OutcomeFailed and
// is always a *StageError.
type Result struct {
	OrderID string
	Outcome orders.Outcome
	Stage   orders.Stage
	Err     error
}

// Deps bundles the processor collaborators. Marker and Metrics are optional.
type Deps struct {
	Format     contracts.PayloadFormat
	Normalizer ports.OrderNormalizer
	Generator  ports.ArtifactGenerator
	Dispatcher ports.PrintDispatcher
	Sink       ports.OutcomeSink
	Marker     ports.PrintedMarker
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	Timeout    time.Duration // per order, 0 disables
}

// Processor runs one order through normalize, filter, generate and print.
// It converts every stage failure into a recorded Result.
type Processor struct {
	format     contracts.PayloadFormat
	normalizer ports.OrderNormalizer
	generator  ports.ArtifactGenerator
	dispatcher ports.PrintDispatcher
	sink       ports.OutcomeSink
	marker     ports.PrintedMarker
	metrics    *metrics.Metrics
	logger     *logger.Logger
	timeout    time.Duration
	now        func() time.Time
}

// NewProcessor creates a new Processor instance.
func NewProcessor(d Deps) *Processor {
	return &Processor{
		format:     d.Format,
		normalizer: d.Normalizer,
		generator:  d.Generator,
		dispatcher: d.Dispatcher,
		sink:       d.Sink,
		marker:     d.Marker,
		metrics:    d.Metrics,
		logger:     d.Logger,
		timeout:    d.Timeout,
		now:        time.Now,
	}
}

// ProcessPayload extracts the order id from a queue message body and processes it.
// An undecodable body is recorded as failed at the decode stage.
func (p *Processor) ProcessPayload(ctx context.Context, body []byte) Result {
	start := p.now()

	orderID, err := contracts.ExtractOrderID(p.format, body)
	if err != nil {
		res := Result{Outcome: orders.OutcomeFailed, Stage: orders.StageDecode, Err: AtStage(orders.StageDecode, err)}
		p.record(ctx, res, start)
		return res
	}

	return p.Process(ctx, orderID)
}

// Process handles a single order end-to-end. It never returns an error: the
// result carries the outcome and, on failure, the classified cause.
func (p *Processor) Process(ctx context.Context, orderID string) Result {
	start := p.now()
	res := p.run(ctx, orderID)
	res.OrderID = orderID
	p.record(ctx, res, start)
	return res
}

func (p *Processor) run(parent context.Context, orderID string) Result {
	ctx := parent
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, p.timeout)
		defer cancel()
	}

	if p.marker != nil {
		printed, err := p.marker.WasPrinted(ctx, orderID)
		switch {
		case err != nil:
			// fail open: a redis outage must not stop printing
			p.logger.Warn(ctx, "printed_marker_unavailable", "printed marker check failed", map[string]any{
				"order_id": orderID,
				"error":    err.Error(),
			})
		case printed:
			return Result{Outcome: orders.OutcomeSkippedAlreadyPrinted, Stage: orders.StageDedup}
		}
	}

	order, err := p.normalizer.Normalize(ctx, orderID)
	if err != nil {
		return failed(orders.StageRetrieve, err)
	}

	if skip, ok := Evaluate(order); !ok {
		return Result{Outcome: skip, Stage: orders.StageFilter}
	}

	art, err := p.generator.Generate(ctx, order)
	if err != nil {
		return failed(orders.StageGenerate, err)
	}
	// The dispatcher releases the barcode files; this covers a dispatcher that never ran them.
	defer func() { _ = art.ReleaseTransient() }()

	if err := p.dispatcher.Dispatch(ctx, art); err != nil {
		return failed(orders.StagePrint, err)
	}

	if p.marker != nil {
		// parent: the order timeout must not drop the marker of a ticket that did print
		if err := p.marker.MarkPrinted(context.WithoutCancel(parent), orderID); err != nil {
			p.logger.Warn(ctx, "printed_marker_unavailable", "failed to mark order printed", map[string]any{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
	}

	return Result{Outcome: orders.OutcomePrinted, Stage: orders.StagePrint}
}

func failed(stage orders.Stage, err error) Result {
	return Result{Outcome: orders.OutcomeFailed, Stage: stage, Err: AtStage(stage, err)}
}

// record writes the result to the metrics, the log and the outcome sink.
func (p *Processor) record(ctx context.Context, res Result, start time.Time) {
	now := p.now()
	p.metrics.ObserveOutcome(res.Outcome, res.Stage, now.Sub(start))

	details := map[string]any{
		"order_id":    res.OrderID,
		"outcome":     res.Outcome,
		"stage":       res.Stage,
		"duration_ms": now.Sub(start).Milliseconds(),
	}

	rec := orders.Record{Time: now, OrderID: res.OrderID, Stage: res.Stage, Outcome: res.Outcome}
	switch {
	case res.Err != nil:
		rec.Error = res.Err.Error()
		p.logger.Error(ctx, "order_failed", "order "+res.OrderID+" failed at "+string(res.Stage), res.Err)
	case res.Outcome.IsSkip():
		p.logger.Info(ctx, "order_skipped", "order skipped", details)
	default:
		p.logger.Info(ctx, "order_processed", "ticket printed", details)
	}

	if p.sink == nil {
		return
	}
	if err := p.sink.Record(ctx, rec); err != nil {
		p.logger.Error(ctx, "outcome_log_failed", "failed to write outcome record", err)
	}
}
