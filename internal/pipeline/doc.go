// Package pipeline runs the outputs of a finished scan as a sequence of steps.
//
// A scan result flows through steps that print the console report, write the
// JSON, CSV and Markdown files, save the result to the history database and
// upload the files to object storage. Each step receives the shared Run and
// records what it produced as an Artifact.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of outputs without modifying the CLI
// 2. It provides consistent error handling and logging across outputs
// 3. Optional outputs (history, upload) are wrapped with BestEffort so their
// failures never change the exit outcome of a scan
//
// Batch use is sequential: callers scan one URL, run its pipeline, then move
// on to the next.
package pipeline
