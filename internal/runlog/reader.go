package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadAll parses every record in a run log file, in order. It is used by
// the CLI to render a finished run's summary; a live tail would instead
// scan incrementally, which this repo does not need.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decoding run log record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading run log: %w", err)
	}
	return records, nil
}
