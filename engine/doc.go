// Package engine coordinates workflow runs across their whole lifetime
// and provides the primary application-level API.
//
// A single driver owns one run for the duration of one process; the
// engine generalizes that to many runs over many processes. Each
// operation resumes a driver from the store, executes under a
// per-instance lock with the middleware chain applied, and persists the
// run record before returning. Callers hold only instance IDs.
//
// # Building an Engine
//
//	store := memory.New()
//	svc := local.New()
//
//	eng, err := engine.New(svc, store,
//	    engine.WithLogger(logger),
//	    engine.WithMiddleware(myMiddleware),
//	    engine.WithBackoff(backoff.NewConstant(2*time.Second)),
//	)
//
// # Running a Workflow
//
//	eng.RegisterWorkflow(def)
//
//	in, err := eng.StartRun(ctx, "etl")
//	in, err = eng.Wait(ctx, in.ID)        // poll until the state settles
//	in, err = eng.Advance(ctx, in.ID, nil) // move to the next state
//
// # Options
//
//   - [WithLogger] — set the structured logger
//   - [WithEmitter] — receive workflow and state lifecycle events
//   - [WithMiddleware] — add middleware to the operation chain
//   - [WithBackoff] — set the polling delay strategy for Wait
//   - [WithTracerProvider] — set the OpenTelemetry tracer provider
//   - [WithMeterProvider] — set the OpenTelemetry meter provider
package engine
