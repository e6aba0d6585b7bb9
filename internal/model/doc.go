// Package model defines the domain data shared by the runner, adapters and
// surfaces: jobs and their status enums, progress and log events, adapter
// results, and the kind-tagged error values used across the app.
package model
