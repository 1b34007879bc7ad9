package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFWriter dials a Graylog UDP input. The writer is passed to Setup as
// Options.GELF and closed by the caller.
func NewGELFWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("creating gelf writer for %s: %w", addr, err)
	}
	w.Facility = "wargame"
	return w, nil
}
