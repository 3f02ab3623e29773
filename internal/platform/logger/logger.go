package logger

import (
	"log"
	"os"
)

// New returns a stdout logger prefixed for this process; swap in structured
// logging when external aggregation lands.
func New() *log.Logger {
	return log.New(os.Stdout, "lifeledger ", log.LstdFlags|log.Lmsgprefix)
}
