package common

import "go.uber.org/zap"

// Assert checks a programming-error invariant. Builds tagged oxydebug panic when the condition
// fails; release builds log the violation and continue.
//
// Parameters:
//   - cond: the invariant that must hold
//   - msg: a short description of the violated contract
//   - fields: optional structured context for the log entry
func Assert(cond bool, msg string, fields ...zap.Field) {
	if cond {
		return
	}
	if DebugBuild {
		panic("assertion failed: " + msg)
	}
	Log().Error("assertion failed: "+msg, fields...)
}

// DebugPanic aborts oxydebug builds after a failure has already been logged. Release builds
// return and let the caller continue.
//
// Parameters:
//   - msg: the panic message
func DebugPanic(msg string) {
	if DebugBuild {
		panic(msg)
	}
}
