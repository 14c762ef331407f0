// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, hot-reload, metrics and debug introspection for thread pool
// processes.
//
// Provides:
//   - Config loading from defaults, YAML and HIOLOAD_* environment variables
//   - Reload hooks fed by config file watches
//   - A Prometheus registry with an HTTP exposition handler
//   - Debug probe registration and state export
//
// Platform probes are build-tag-partitioned.
package control
