/*
Package resilience provides a circuit breaker for calls to the remote store.

When the store stops answering, the breaker opens and requests fail fast with
ErrCircuitOpen, which callers treat like any other fetch failure and serve from
their stale cache. After Timeout a trial request is let through; success closes
the breaker again.

	breaker := resilience.New("store", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	body, err := resilience.Call(breaker, func() ([]byte, error) {
		return fetch(ctx, url)
	})

States:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                             |
	                                         [failure]
	                                             v
	                                           Open
*/
package resilience
