package lecture_archiver

import (
	"context"
	"io"
)

// A context-aware io.Reader wrapper, so an in-progress download stops when
// its context is cancelled.
type readerContext struct {
	ctx context.Context
	r   io.Reader
}

func (r *readerContext) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
