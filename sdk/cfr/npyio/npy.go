// Package npyio writes and reads the dense [rows, cols] float64 arrays the
// engine persists checkpoints as, in the NumPy .npy binary format (spec
// §6.2) — the wire format the original tooling and any downstream analysis
// in Python expects, so a hand-rolled reader/writer is required: nothing in
// the example pack reads or writes this format, and pulling in a full NumPy-
// compatible array library for two small encode/decode functions would be
// disproportionate to what's needed.
package npyio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lox/cfrsolve/internal/atomicfile"
)

const (
	magic        = "\x93NUMPY"
	majorVersion = 1
	minorVersion = 0
)

// WriteFloat64Array atomically writes data (row-major, shape [rows, cols])
// to path in .npy format, little-endian float64, C order.
func WriteFloat64Array(path string, data []float64, rows, cols int) error {
	if len(data) != rows*cols {
		return fmt.Errorf("npyio: data length %d does not match shape (%d, %d)", len(data), rows, cols)
	}

	header := buildHeader(rows, cols)

	buf := make([]byte, 0, len(magic)+2+2+len(header)+len(data)*8)
	buf = append(buf, magic...)
	buf = append(buf, majorVersion, minorVersion)

	headerLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(headerLen, uint16(len(header)))
	buf = append(buf, headerLen...)
	buf = append(buf, header...)

	for _, v := range data {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		buf = append(buf, b[:]...)
	}

	return atomicfile.WriteFile(path, buf, 0o644)
}

func buildHeader(rows, cols int) []byte {
	dict := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	// Pad with spaces so magic+version+headerLen+header is a multiple of 64,
	// and terminate with a newline, per the .npy spec.
	prefixLen := len(magic) + 2 + 2
	total := prefixLen + len(dict) + 1
	pad := (64 - total%64) % 64
	dict += strings.Repeat(" ", pad) + "\n"
	return []byte(dict)
}

// ReadFloat64Array reads a .npy file written by WriteFloat64Array (or any
// <f8, C-order, 2-D .npy file) and returns the flattened data plus shape.
func ReadFloat64Array(path string) (data []float64, rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return nil, 0, 0, fmt.Errorf("npyio: reading magic: %w", err)
	}
	if string(magicBuf) != magic {
		return nil, 0, 0, fmt.Errorf("npyio: not a .npy file: %q", path)
	}

	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("npyio: reading version: %w", err)
	}

	var headerLenBuf [2]byte
	if _, err := io.ReadFull(r, headerLenBuf[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("npyio: reading header length: %w", err)
	}
	headerLen := binary.LittleEndian.Uint16(headerLenBuf[:])

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, 0, fmt.Errorf("npyio: reading header: %w", err)
	}

	rows, cols, err = parseShape(string(header))
	if err != nil {
		return nil, 0, 0, err
	}

	data = make([]float64, rows*cols)
	var b [8]byte
	for i := range data {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, 0, 0, fmt.Errorf("npyio: reading element %d: %w", i, err)
		}
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
	}

	return data, rows, cols, nil
}

// parseShape extracts the (rows, cols) tuple out of the header's Python
// dict-literal shape field. This is a narrow, format-specific parse — not a
// general Python literal parser — matching what this engine ever writes.
func parseShape(header string) (rows, cols int, err error) {
	idx := strings.Index(header, "'shape':")
	if idx < 0 {
		return 0, 0, fmt.Errorf("npyio: header missing shape field: %q", header)
	}
	rest := header[idx+len("'shape':"):]
	open := strings.Index(rest, "(")
	shut := strings.Index(rest, ")")
	if open < 0 || shut < 0 || shut < open {
		return 0, 0, fmt.Errorf("npyio: malformed shape tuple: %q", header)
	}
	parts := strings.Split(rest[open+1:shut], ",")
	var dims []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, fmt.Errorf("npyio: malformed shape dimension %q: %w", p, err)
		}
		dims = append(dims, v)
	}
	switch len(dims) {
	case 1:
		return dims[0], 1, nil
	case 2:
		return dims[0], dims[1], nil
	default:
		return 0, 0, fmt.Errorf("npyio: expected a 1-D or 2-D array, got shape %v", dims)
	}
}
