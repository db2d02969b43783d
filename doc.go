// Package pipeline provides an in-process asynchronous job subsystem
// for applying record mutations. Producers enqueue create, update, and
// delete jobs into priority lanes; a fixed pool of workers drains the
// lanes in strict priority order and applies each mutation against the
// record store.
//
// The pipeline is a library, not a service. Import it, hand it a
// record store, and enqueue jobs as ordinary Go values.
//
// # Quick Start
//
//	p, err := pipeline.New(recordStore,
//	    pipeline.WithWorkers(5),
//	)
//	if err != nil { ... }
//	p.Start(ctx)
//	defer p.Shutdown(ctx)
//
//	jobID, err := p.Enqueue(ctx, job.Request{
//	    Action:  job.ActionCreate,
//	    OwnerID: "user_123",
//	    Payload: payload,
//	}, job.WithPriority(job.PriorityHigh))
//
// # Semantics
//
// Three lanes back the queue: high (high and critical priorities),
// normal, and low. Workers always take from the highest non-empty lane
// and never preempt a running job. Jobs within one lane complete in
// enqueue order relative to a single worker; across workers execution
// overlaps.
//
// Validation happens when a worker picks a job up. Eligibility is
// decided solely by the record store; a rejected update is an expected
// business outcome, not a fault. Transient store errors retry with
// backoff up to the job's budget and then land in the dead letter
// queue. Lifecycle transitions are journaled to a job.Store so
// outcomes stay queryable after processing.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package pipeline
