// Package gangsheet contains the domain model for gangsheet generation:
// packing paid order designs onto fixed-width print rolls and tracking
// the lifecycle of a generation job.
package gangsheet
