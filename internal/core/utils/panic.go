package utils

import (
	"context"
	"log"
	"runtime"
)

func CatchPanic() {
	if err := recover(); err != nil {
		stack := make([]byte, 8096)
		stack = stack[:runtime.Stack(stack, false)]
		log.Printf("recovered panic:\n%s", stack)
	}
}

func CatchPanicWithCancel(cancel context.CancelFunc) {
	if err := recover(); err != nil {
		stack := make([]byte, 8096)
		stack = stack[:runtime.Stack(stack, false)]
		log.Printf("recovered panic:\n%s", stack)
		cancel()
	}
}

// CatchPanicWithFallback must be deferred directly. onPanic receives the
// recovered value.
func CatchPanicWithFallback(onPanic func(any)) {
	if err := recover(); err != nil {
		stack := make([]byte, 8096)
		stack = stack[:runtime.Stack(stack, false)]
		log.Printf("recovered panic:\n%s", stack)
		onPanic(err)
	}
}
