// Package shared holds cross-cutting helpers that belong to no single
// domain package.
//
// Its only current component is testutil, the recording slog handler
// the package tests use to assert on emitted log records. Code in this
// tree must stay free of domain logic and of dependencies on the other
// internal packages.
package shared
