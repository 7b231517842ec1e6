// Package types holds small value types shared by several Sabik packages.
//
// HealthStatus is reported by tools that implement tool.HealthChecker and
// by the checks in package health:
//
//	status := types.NewDegradedStatus("no audio player found", map[string]any{
//	    "searched": []string{"ffplay", "afplay", "mpg123"},
//	})
//	if !status.IsHealthy() {
//	    fmt.Println(status.Message)
//	}
package types
