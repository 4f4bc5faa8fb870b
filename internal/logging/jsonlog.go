package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type entry struct {
	Level   string         `json:"level"`
	Time    string         `json:"time"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var verbose atomic.Bool

// SetVerbose enables debug-level output.
func SetVerbose(on bool) { verbose.Store(on) }

func Log(level, msg string, fields map[string]any) {
	e := entry{Level: level, Time: time.Now().UTC().Format(time.RFC3339Nano), Message: msg, Fields: fields}
	b, _ := json.Marshal(e)
	fmt.Fprintln(os.Stdout, string(b))
}

func Info(msg string, fields map[string]any)  { Log("info", msg, fields) }
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }

func Debug(msg string, fields map[string]any) {
	if verbose.Load() {
		Log("debug", msg, fields)
	}
}
