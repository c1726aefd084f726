package instance

import "os"

// GetID identifies this process in log output when several replicas of a
// worker run side by side.
func GetID() string {
	if id := os.Getenv("DRIFTOPS_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "local"
}
