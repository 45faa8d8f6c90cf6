package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends Records to a single run's log file. It is the sole writer
// of that file for the lifetime of a run: every method call flushes
// immediately so a concurrently-running reader (e.g. a monitoring UI
// tailing the file) always observes complete lines.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open creates the run log at path, or opens an existing one for
// appending (it is never truncated), creating its parent directory if
// necessary.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating run log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return &Writer{file: f, enc: json.NewEncoder(f)}, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Writer) append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing run log record: %w", err)
	}
	return w.file.Sync()
}

// WriteFlowFile records the raw YAML source of the flow being run, once,
// at the start of a run.
func (w *Writer) WriteFlowFile(yaml string) error {
	return w.append(Record{Type: TypeFlowFile, Timestamp: time.Now().UTC(), YAML: yaml})
}

// WriteJobStatus records a job state transition.
func (w *Writer) WriteJobStatus(jobID, state, reason string) error {
	return w.append(Record{Type: TypeJobStatus, Timestamp: time.Now().UTC(), JobID: jobID, State: state, Reason: reason})
}

// WriteStepStatus records a step state transition. exitCode is nil unless
// the step has actually produced one.
func (w *Writer) WriteStepStatus(jobID string, stepIndex int, stepName, state, reason string, exitCode *int) error {
	return w.append(Record{
		Type:      TypeStepStatus,
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
		StepIndex: intPtr(stepIndex),
		StepName:  stepName,
		State:     state,
		Reason:    reason,
		ExitCode:  exitCode,
	})
}

// WriteStepOutput records one streamed output chunk from a running step.
func (w *Writer) WriteStepOutput(jobID string, stepIndex int, stepName, stream, chunk string) error {
	return w.append(Record{
		Type:      TypeStepOutput,
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
		StepIndex: intPtr(stepIndex),
		StepName:  stepName,
		Stream:    stream,
		Chunk:     chunk,
	})
}

// WriteRunFinished records the terminal, run-wide outcome. It is always
// the last record in a well-formed log.
func (w *Writer) WriteRunFinished(state string) error {
	return w.append(Record{Type: TypeRunFinished, Timestamp: time.Now().UTC(), State: state})
}
