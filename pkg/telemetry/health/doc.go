// Package health serves liveness, readiness and version endpoints.
//
// Liveness (/health) answers 200 as long as the process runs. Readiness
// (/ready) runs the registered component checks concurrently and answers
// 503 if any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("allowlist", func(ctx context.Context) error {
//		if len(gw.Allowlist().Domains()) == 0 {
//			return errors.New("no allowed domains")
//		}
//		return nil
//	})
//	mux.Handle("/health", checker.LivenessHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
