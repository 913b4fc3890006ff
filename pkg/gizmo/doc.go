// Package gizmo provides the core visibility and engagement rules for a
// content-sharing service: pastes, images and albums with per-resource
// exposure control, password gating, stable public slugs, bookmark toggling
// with denormalized counters, and federated identity linking.
//
// It exposes a single Service interface backed by a pluggable Repository
// (memory and Postgres implementations are provided under subpackages).
// Transport, upload plumbing and rendering are external collaborators that
// call into this package; they never participate in slug allocation or
// access decisions.
//
// # Concurrency
//
// Slug allocation, bookmark toggling and provider linking all rely on the
// repository's uniqueness constraints as the sole arbiter of conflicts. The
// denormalized engagement counter on resources is an advisory cache; the
// authoritative count is always a live recount of bookmark rows.
package gizmo
