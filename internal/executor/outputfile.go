package executor

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// parseOutputFile reads the step-output protocol file: zero or more
// `name=value` lines. Names must match [A-Za-z_][A-Za-z0-9_-]*; the
// trailing newline of the last line is optional. A missing file yields no
// outputs (not an error); a malformed line is a parse error.
func parseOutputFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading step output file: %w", err)
	}
	defer f.Close()

	outputs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed step output at line %d: missing '='", lineNo)
		}
		if name == "" {
			return nil, fmt.Errorf("malformed step output at line %d: empty name", lineNo)
		}
		if !isValidOutputName(name) {
			return nil, fmt.Errorf("malformed step output at line %d: invalid name %q", lineNo, name)
		}
		outputs[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading step output file: %w", err)
	}
	return outputs, nil
}

func isValidOutputName(name string) bool {
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' || c == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
