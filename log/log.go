package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	sentrypkg "github.com/kastheco/tareas/internal/sentry"
)

var (
	WarningLog *log.Logger
	InfoLog    *log.Logger
	ErrorLog   *log.Logger
)

var logFileName = filepath.Join(os.TempDir(), "tareas.log")

var globalLogFile *os.File

func init() {
	// Usable before Initialize (and in packages whose tests never call it).
	InfoLog = log.New(io.Discard, "", 0)
	WarningLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// Initialize should be called once at the beginning of the program to set up logging.
// defer Close() after calling this function. It sets the go log output to the file in
// the os temp directory. Warnings and errors are forwarded to sentry when it is enabled.
func Initialize(daemon bool) {
	f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(fmt.Sprintf("could not open log file: %s", err))
	}

	// Set log format to include timestamp and file/line number
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	fmtS := "%s"
	if daemon {
		fmtS = "[SERVER] %s"
	}
	flags := log.Ldate | log.Ltime | log.Lshortfile
	InfoLog = log.New(sentrypkg.NewWriter(f, sentrypkg.LevelInfo), fmt.Sprintf(fmtS, "INFO:"), flags)
	WarningLog = log.New(sentrypkg.NewWriter(f, sentrypkg.LevelWarning), fmt.Sprintf(fmtS, "WARNING:"), flags)
	ErrorLog = log.New(sentrypkg.NewWriter(f, sentrypkg.LevelError), fmt.Sprintf(fmtS, "ERROR:"), flags)

	globalLogFile = f
}

func Close() {
	if globalLogFile == nil {
		return
	}
	_ = globalLogFile.Close()
	globalLogFile = nil
	// TODO: maybe only print if verbose flag is set?
	fmt.Println("wrote logs to " + logFileName)
}

// Every is used to log at most once every timeout duration.
type Every struct {
	mu      sync.Mutex
	timeout time.Duration
	last    time.Time
}

func NewEvery(timeout time.Duration) *Every {
	return &Every{timeout: timeout}
}

// ShouldLog returns true if the timeout has passed since the last log.
func (e *Every) ShouldLog() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	if e.last.IsZero() || now.Sub(e.last) >= e.timeout {
		e.last = now
		return true
	}
	return false
}
