// Package bridgelog provides component-scoped stdlib loggers shared across
// the relayer's goroutines, following the same prefixed log.Logger idiom
// used throughout the server package.
package bridgelog

import (
	"io"
	"log"
	"os"
)

// Output is the shared writer all component loggers write to; tests can
// redirect it before calling New.
var Output io.Writer = os.Stderr

// New returns a *log.Logger prefixed with "[component] ", matching the
// bracket-prefix convention the HTTP handlers already use.
func New(component string) *log.Logger {
	return log.New(Output, "["+component+"] ", log.LstdFlags)
}
