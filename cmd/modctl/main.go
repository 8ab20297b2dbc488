// Command modctl drives an edge runtime's module management API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	opts := &globalOptions{}
	err := newRootCmd(opts).Execute()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if serr := opts.shutdownTracing(ctx); serr != nil {
		fmt.Fprintf(os.Stderr, "flush traces: %v\n", serr)
	}
	cancel()

	if err != nil {
		os.Exit(exitCode(err))
	}
}
