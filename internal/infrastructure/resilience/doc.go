/*
Package resilience provides a circuit breaker for outbound calls.

The webhook notifier wraps every delivery in a Breaker, so an endpoint that
keeps failing is skipped for a cooldown instead of stalling the queue with
retries.

# Usage

	breaker := resilience.New("webhook", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Breaker changed state", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	err := breaker.Call(func() error {
		return deliver(event)
	})

# States

	Closed --[threshold failures]--> Open --[cooldown]--> Half-Open
	   ^                                                      |
	   +---------------------[trial succeeds]-----------------+
	                         [trial fails] -> Open
*/
package resilience
