// Package experiment fans one task out across a roster of model adapters
// and records exactly one CallLog per model.
//
// Each roster member runs in isolation: its adapter, request copy and
// accumulator are private to the call, and a failure, including a panic,
// becomes that model's CallLog without affecting the others. The only
// shared resource is the sink, which serializes writes per file.
//
// The batch runner repeats a task over numbered data folders, one image
// per folder.
package experiment
