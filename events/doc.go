// Package events turns verified Kick webhook deliveries into typed payloads
// and routes them to the handlers registered per broadcaster.
//
// Actors inside a payload are bound to the client that registered the
// subscription. Lookups are always available; moderation and reward edits
// need a delegated credential and fail with a delegation error otherwise.
package events
