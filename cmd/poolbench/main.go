// File: cmd/poolbench/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// poolbench drives a synthetic workload through a thread pool and prints a
// report.

package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
