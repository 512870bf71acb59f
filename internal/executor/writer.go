package executor

import (
	"bytes"
	"context"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/oclhelpers-release/internal/logger"
)

// lineWriter splits child output into lines, logs them and keeps the last few.
// os/exec calls Write from one goroutine when Stdout and Stderr are the same writer.
type lineWriter struct {
	ctx     context.Context //nolint:containedctx // Lines are logged with the command's logger.
	level   zapcore.Level
	partial bytes.Buffer
	tail    []string
	max     int
}

func newLineWriter(ctx context.Context, level zapcore.Level, maxLines int) *lineWriter {
	return &lineWriter{
		ctx:   ctx,
		level: level,
		max:   maxLines,
		tail:  make([]string, 0, maxLines),
	}
}

// Write implements io.Writer.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.partial.Write(p)

	for {
		line, err := w.partial.ReadBytes('\n')
		if err != nil {
			// No newline yet, put the fragment back.
			w.partial.Write(line)
			break
		}

		w.emit(string(bytes.TrimRight(line, "\r\n")))
	}

	return len(p), nil
}

// Flush emits a trailing line without newline.
func (w *lineWriter) Flush() {
	if w.partial.Len() == 0 {
		return
	}

	w.emit(w.partial.String())
	w.partial.Reset()
}

// Tail returns a copy of the kept lines, oldest first.
func (w *lineWriter) Tail() []string {
	return append([]string(nil), w.tail...)
}

func (w *lineWriter) emit(line string) {
	if len(w.tail) == w.max {
		copy(w.tail, w.tail[1:])
		w.tail = w.tail[:len(w.tail)-1]
	}

	w.tail = append(w.tail, line)

	logger.FromContext(w.ctx).Desugar().Check(w.level, line).Write()
}
