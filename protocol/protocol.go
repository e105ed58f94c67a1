// Package protocol implements the server mode's line-oriented request
// and header-framed response format described in spec.md §6. It has no
// analog in the teacher repo (executor.protocolHandler multiplexes a
// stderr stream for host function calls inside a WASM guest); this is a
// plain two-line request / headers-then-body response reader and
// writer over the process's own standard streams.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request is one server-mode render request: an entry specifier and a
// raw (possibly empty) props JSON string.
type Request struct {
	Entry string
	Props string
}

// ReadRequest reads one two-line request from r. It returns io.EOF
// (unwrapped) when the stream is closed cleanly before any line of a
// new request is read, signaling a clean shutdown per spec.md §6.
func ReadRequest(r *bufio.Reader) (Request, error) {
	entry, err := readLine(r)
	if err != nil {
		return Request{}, err
	}
	props, err := readLine(r)
	if err != nil {
		if err == io.EOF {
			return Request{}, fmt.Errorf("truncated request: missing props line")
		}
		return Request{}, err
	}
	return Request{Entry: entry, Props: props}, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}

// WriteOk writes a successful, Length-framed response carrying body.
func WriteOk(w io.Writer, body string) error {
	return writeFramed(w, "Ok", body)
}

// WriteError writes a failed, Length-framed response carrying msg.
func WriteError(w io.Writer, msg string) error {
	return writeFramed(w, "Error", msg)
}

func writeFramed(w io.Writer, status, body string) error {
	header := fmt.Sprintf("Status:%s\nLength:%d\n\n", status, len(body))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := io.WriteString(w, body)
	return err
}

// ParseLength parses the value of a "Length:<N>" header line, for
// symmetry with WriteOk/WriteError on the reading side of a client.
func ParseLength(headerLine string) (int, error) {
	const prefix = "Length:"
	if !strings.HasPrefix(headerLine, prefix) {
		return 0, fmt.Errorf("malformed header line: %q", headerLine)
	}
	return strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(headerLine, prefix)))
}
