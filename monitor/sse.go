package monitor

import (
	"bufio"
	"context"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// parseSSE reads a server-sent events stream and calls fn once per
// dispatched event. Comment lines and events without data are skipped.
// Multiple data lines of one event are joined with "\n". It returns nil
// when the stream ends cleanly.
func parseSSE(ctx context.Context, r io.Reader, onLine func(), fn func(name, data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		name    string
		data    strings.Builder
		hasData bool
	)
	dispatch := func() error {
		defer func() {
			name = ""
			data.Reset()
			hasData = false
		}()
		if !hasData || strings.TrimSpace(data.String()) == "" {
			return nil
		}
		return fn(name, data.String())
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onLine != nil {
			onLine()
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return dispatch()
}
