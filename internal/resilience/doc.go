// Package resilience groups the fault tolerance helpers used around the
// render service and the database.
//
// Package circuitbreaker wraps sony/gobreaker so a render service that keeps
// failing is given time to recover instead of being hammered. Package retry
// runs an operation with exponential backoff and jitter until it succeeds,
// fails permanently or the context ends.
//
//	cb := circuitbreaker.New(circuitbreaker.RenderServiceConfig())
//	out, err := cb.Execute(func() (interface{}, error) {
//	    return client.Do(req)
//	})
//
//	err = retry.WithBackoff(ctx, retry.RenderConfig(), func() error {
//	    return fetchOnce(ctx)
//	})
package resilience
