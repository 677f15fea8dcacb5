package twigify

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
)

// Logger receives compile errors, one line each.
var Logger = log.New(os.Stderr, "", 0)

// ErrClosed is returned when writing to or closing a Stream that is already
// closed.
var ErrClosed = errors.New("twigify: stream already closed")

// State is the lifecycle stage of a Stream.
type State int

const (
	StateIdle      State = iota // created, nothing written yet
	StateBuffering              // receiving template text
	StateCompiling              // input complete, compiling
	StateEmitted                // module source written
	StateFailed                 // closed without writing module source
	StateSkipped                // path not eligible; input discarded
)

var stateNames = [...]string{"idle", "buffering", "compiling", "emitted", "failed", "skipped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Stream transforms a single template file. Template text is written to it
// in order by a single producer; Close compiles the text and writes the
// generated module source to the downstream writer in a single Write.
//
// A Stream for a path that is not eligible discards its input and writes
// nothing.
type Stream struct {
	path    string
	cfg     Config
	compile Compiler
	out     io.Writer
	buf     bytes.Buffer
	state   State
	err     error
}

// newStream returns a Stream writing to out, or discarding its output if out
// is nil.
func newStream(path string, cfg Config, compile Compiler, out io.Writer) *Stream {
	if out == nil {
		out = io.Discard
	}
	return &Stream{path: path, cfg: cfg, compile: compile, out: out}
}

func skipStream(path string) *Stream {
	return &Stream{path: path, state: StateSkipped}
}

// Path returns the path of the file being transformed.
func (s *Stream) Path() string {
	return s.path
}

// Config returns the configuration this stream compiles with.
func (s *Stream) Config() Config {
	return s.cfg
}

// State returns the stream's current lifecycle stage.
func (s *Stream) State() State {
	return s.state
}

// Err returns the compile error encountered by Close, if any. It is set
// even when the error was not returned because FailOnError is off.
func (s *Stream) Err() error {
	return s.err
}

// Write appends p to the buffered template text.
func (s *Stream) Write(p []byte) (int, error) {
	switch s.state {
	case StateSkipped:
		return len(p), nil
	case StateIdle:
		s.state = StateBuffering
	case StateBuffering:
	default:
		return 0, ErrClosed
	}
	return s.buf.Write(p)
}

// Close compiles the buffered template text and writes the module source.
//
// When compilation fails the error is logged to Logger. If FailOnError is
// set, nothing is written and the *CompileError is returned. Otherwise a
// module exporting undefined is written and Close returns nil; the error
// remains available from Err.
func (s *Stream) Close() error {
	switch s.state {
	case StateSkipped:
		return nil
	case StateIdle, StateBuffering:
	default:
		return ErrClosed
	}

	s.state = StateCompiling
	var expr, err = Compile(s.path, s.buf.String(), s.cfg, s.compile)
	s.buf.Reset()
	if err != nil {
		s.err = err
		Logger.Println("Twig compile error: " + err.Error())
		if s.cfg.FailOnError {
			s.state = StateFailed
			return err
		}
		expr = "undefined"
	}

	if _, err = io.WriteString(s.out, Wrap(expr)); err != nil {
		s.state = StateFailed
		return err
	}
	s.state = StateEmitted
	return nil
}
