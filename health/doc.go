// Package health exposes liveness, readiness, and detailed health endpoints
// for the authentication service.
//
// Checkers report a Status. The Aggregator runs every registered checker
// concurrently under a shared deadline and folds the results: any unhealthy
// check makes the service unhealthy.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewPingChecker("token_codec", func(context.Context) error {
//	    return codec.SelfTest()
//	}))
//	agg.Register(health.NewPingChecker("member_store", store.Ping))
//	health.RegisterHandlers(mux, agg)
package health
