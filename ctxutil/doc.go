// Package ctxutil provides context helpers shared by the bus tooling.
//
// # Trace IDs
//
// Every demo run and every logged delivery fault carries a trace id:
//
//	ctx, traceID := ctxutil.EnsureTraceID(ctx)
//	logger.Infof(ctx, "run %s started", traceID)
//
// # Async Operations
//
// Derive a context that survives the parent's cancellation but still times
// out, e.g. when draining in-flight deliveries on shutdown:
//
//	ctx, cancel := ctxutil.WithAsyncContext(ctx, 10*time.Second)
//	defer cancel()
//	_ = b.Drain(ctx)
package ctxutil
