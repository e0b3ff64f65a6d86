package docquiz

import (
	"fmt"
	"log"
)

// verboseMode gates the debug trace of the parsing and synthesis stages.
var verboseMode bool

// SetVerbose turns stage tracing on or off.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// Verbose reports whether stage tracing is on.
func Verbose() bool {
	return verboseMode
}

// VerboseLog logs only when verbose mode is enabled
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}

// traceStage logs a verbose line tagged with the pipeline stage that produced it.
func traceStage(stage, format string, v ...interface{}) {
	if verboseMode {
		log.Printf("[%s] %s", stage, fmt.Sprintf(format, v...))
	}
}
