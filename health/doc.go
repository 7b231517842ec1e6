// Package health provides the probes behind `sabik doctor`.
//
// Each probe returns a types.HealthStatus. Checks are named probes that Run
// executes concurrently with a per-check timeout:
//
//	results := health.Run(ctx, 5*time.Second,
//	    health.Check{Name: "image endpoint", Run: func(ctx context.Context) types.HealthStatus {
//	        return health.URLCheck(ctx, client, cfg.ImageBaseURL)
//	    }},
//	    health.Check{Name: "output dir", Run: func(context.Context) types.HealthStatus {
//	        return health.WritableDirCheck(cfg.OutputDir)
//	    }},
//	)
//	overall := health.Overall(results)
//
// Combine and Overall report unhealthy if any check is unhealthy, degraded
// if any is degraded, and healthy otherwise.
package health
