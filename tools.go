//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// Tools used by this module (install with go install):
// - github.com/matryer/moq (consumer-side interface mocks, *_mock_test.go)
// - github.com/pressly/goose/v3/cmd/goose (ad-hoc migration runs against migrations/)
