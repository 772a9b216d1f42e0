package crash

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"tg-unibans/internal/logger"
)

// PanicError is returned by Capture when the wrapped function panicked
type PanicError struct {
	Module string
	Value  interface{}
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

// RecoverWithStack recovers a panic and logs it with the stack trace
func RecoverWithStack(moduleName string) {
	if r := recover(); r != nil {
		report("PANIC", moduleName, r, debug.Stack())
	}
}

// RecoverWithStackAndExit is deferred in main. It logs the panic along
// with the runtime state and exits non-zero.
func RecoverWithStackAndExit(moduleName string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		report("FATAL PANIC", moduleName, r, stack)
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", stack)

		info := RuntimeInfo()
		logger.Error(info)
		fmt.Fprintln(os.Stderr, info)

		// let the log writer flush
		time.Sleep(time.Second)
		os.Exit(1)
	}
}

func report(label, moduleName string, r interface{}, stack []byte) {
	logger.Errorf("%s in %s: %v\nStack trace:\n%s", label, moduleName, r, stack)
	fmt.Fprintf(os.Stderr, "[%s] %s - %s: %v\n", label, time.Now().Format(time.DateTime), moduleName, r)
}

// Capture runs fn and turns a panic into a *PanicError
func Capture(moduleName string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Warningf("PANIC in %s: %v\n%s", moduleName, r, string(stack))
			err = &PanicError{Module: moduleName, Value: r, Stack: stack}
		}
	}()
	return fn()
}

// SafeGoroutine starts fn in a goroutine that survives panics
func SafeGoroutine(name string, fn func()) {
	go func() {
		defer RecoverWithStack(fmt.Sprintf("goroutine-%s", name))
		fn()
	}()
}

// RuntimeInfo summarizes the process state for status replies and crash logs
func RuntimeInfo() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return fmt.Sprintf(`Go version: %s
CPUs: %d
Goroutines: %d
Heap allocated: %d KB
Heap in use: %d KB
Stack in use: %d KB
Next GC: %d KB
Num GC: %d`,
		runtime.Version(),
		runtime.NumCPU(),
		runtime.NumGoroutine(),
		bToKb(m.HeapAlloc),
		bToKb(m.HeapInuse),
		bToKb(m.StackInuse),
		bToKb(m.NextGC),
		m.NumGC,
	)
}

func bToKb(b uint64) uint64 { return b >> 10 }

// SetupCrashHandler turns memory faults into recoverable panics
func SetupCrashHandler() {
	debug.SetPanicOnFault(true)
}
