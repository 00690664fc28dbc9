// Package log is a small wrapper around the standard library logger used by
// every aurosearch component.
//
// Each component asks for a named logger once and keeps it in a package
// variable:
//
//	var l = log.ForService("backend")
//
//	l.Infof("fetched %d filter groups", n)
//	l.Warnf("search failed: %v", err)
//	l.Debugf("query params: %s", params.Encode())
//
// Every line carries the component marker `[name>]` after the level, e.g.
//
//	2026/10/19 10:02:11.123456 WARN [backend>] search failed: connection refused
//
// Debug output is off by default. `aurosearch --debug` turns it on for all
// components (SetGlobalDebug); EnableDebugFor narrows it to one component.
//
// Tests redirect output with SetOutput and assert on the buffer contents.
package log
