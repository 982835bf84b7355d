// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// The task service owns the intake flow: it persists a new task, publishes
// the hand-off event that triggers background outreach, and records the
// outcome of the hand-off on the task itself. Read operations back the
// dashboard's polling endpoints.
//
// Services receive dependencies through constructor injection and translate
// store-level errors into service-level sentinels that the API layer maps
// to HTTP status codes.
package service
