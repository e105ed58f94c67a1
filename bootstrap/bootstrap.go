// Package bootstrap embeds the JavaScript run once per runtime
// construction, before any user module is admitted. It installs the
// Web-ish globals the Op Surface backs, captures console output,
// stubs timers, installs the frozen render dispatcher, and deletes
// the host namespace.
//
// Grounded on the teacher repo's language/javascript.WrapCode +
// go:embed stdlib.js pattern (itself embedding a QuickJS polyfill
// layer loaded ahead of user code) and on couchbase-sync_gateway's
// js/v8_vm.go kSetupLoggingJS + go:embed underscore-umd-min.js
// setup-script convention: a host-authored script compiled once and
// run in every new context ahead of user code.
package bootstrap

import _ "embed"

// Script is the bootstrap source, run via the isolate host's RunScript
// immediately after context construction.
//
//go:embed bootstrap.js
var Script string
