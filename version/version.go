// Package version holds the build version, set with
// -ldflags "-X carbonlint/version.Version=1.2.3".
package version

var Version = "dev"
