package source

import (
	"os"
	"sync"

	ircerr "fifoirc/internal/errors"
	"fifoirc/internal/linereader"
	"fifoirc/util"
)

// FIFO reads lines from a named pipe.  The pipe is created if missing.
//
// Opening a pipe for reading blocks until a writer appears, so the open
// is deferred to the first ReadLine, which runs on the reader goroutine.
// When the last writer closes, ReadLine reports a hangup and Recreate
// validates the path again before the next open.
type FIFO struct {
	path   string
	mode   os.FileMode
	logger *util.Logger

	mu      sync.Mutex
	file    *os.File
	reader  *linereader.Reader
	opening bool
	closed  bool
}

// NewFIFO returns a FIFO source for path.  mode is used when the pipe
// has to be created.
func NewFIFO(path string, mode os.FileMode, logger *util.Logger) *FIFO {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &FIFO{path: path, mode: mode, logger: logger}
}

func (f *FIFO) Name() string { return "fifo " + f.path }
func (f *FIFO) Kind() Kind   { return KindFIFO }

// Path returns the pipe location.
func (f *FIFO) Path() string { return f.path }

// Open ensures a FIFO exists at the path.
func (f *FIFO) Open() error {
	if err := ensureFIFO(f.path, f.mode); err != nil {
		return ircerr.WrapSource(f.Name(), "open", err)
	}
	f.logger.Info("fifo at %s", f.path)
	return nil
}

// ReadLine opens the pipe if necessary and reads one line.
func (f *FIFO) ReadLine(max int) (string, error) {
	r, err := f.stream()
	if err != nil {
		return "", err
	}
	return r.ReadLine(max)
}

func (f *FIFO) stream() (*linereader.Reader, error) {
	f.mu.Lock()
	if f.reader != nil {
		r := f.reader
		f.mu.Unlock()
		return r, nil
	}
	if f.closed {
		f.mu.Unlock()
		return nil, ircerr.Hangup(os.ErrClosed)
	}
	f.opening = true
	f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_RDONLY, 0)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.opening = false
	if err != nil {
		return nil, ircerr.WrapSource(f.Name(), "open", err)
	}
	if f.closed {
		file.Close()
		return nil, ircerr.Hangup(os.ErrClosed)
	}
	f.file = file
	f.reader = linereader.New(file)
	return f.reader, nil
}

// Recreate closes the hung-up stream and checks the path again.
func (f *FIFO) Recreate() error {
	f.mu.Lock()
	f.release()
	f.mu.Unlock()

	if err := ensureFIFO(f.path, f.mode); err != nil {
		return ircerr.WrapSource(f.Name(), "recreate", err)
	}
	f.logger.Debug("fifo %s reopened", f.path)
	return nil
}

// Close releases the pipe.  A reader blocked waiting for a writer is
// woken up and sees a hangup.
func (f *FIFO) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.opening {
		wakeReader(f.path)
	}
	return f.release()
}

func (f *FIFO) release() error {
	f.reader = nil
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
