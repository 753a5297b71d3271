// Package version exposes build information for the pubsub binary.
//
// Set it at build time with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/ncobase/pubsub/version.Version=1.2.3 \
//	  -X github.com/ncobase/pubsub/version.Revision=abc1234 \
//	  -X 'github.com/ncobase/pubsub/version.BuiltAt=$(date)'" ./cmd/pubsub
//
// Unset values fall back to the module build info embedded by the Go
// toolchain.
package version
