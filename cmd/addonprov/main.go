// Command addonprov installs the prebuilt native addon matching the host
// into a package root. It is meant to run as a package's postinstall hook:
//
//	"scripts": { "postinstall": "addonprov" }
//
// Exit status is 0 when the addon was installed or nothing needed doing,
// and 1 when it could not be installed.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

type exitCoder interface {
	ExitCode() int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	a := newApp(os.Stdout, os.Stderr)
	err := a.execute(ctx, args)
	if err == nil {
		return 0
	}

	// One line on stderr, no usage or stack traces
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		msg = "error"
	}
	_, _ = os.Stderr.WriteString(msg + "\n")

	code := 1
	if ec, ok := err.(exitCoder); ok {
		if c := ec.ExitCode(); c != 0 {
			code = c
		}
	}
	return code
}
