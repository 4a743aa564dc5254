package source

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	ircerr "fifoirc/internal/errors"
	"fifoirc/internal/linereader"
	"fifoirc/util"
)

// Subprocess runs a command through the system shell.  Lines it prints
// on stdout are relayed to the channel; PRIVMSG bodies are written to
// its stdin through Forward.  Stderr is inherited.
type Subprocess struct {
	command string
	logger  *util.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	reader *linereader.Reader
}

// NewSubprocess returns a source for command.  Nothing is started until
// Open.
func NewSubprocess(command string, logger *util.Logger) *Subprocess {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Subprocess{command: command, logger: logger}
}

func (s *Subprocess) Name() string { return "exec " + s.command }
func (s *Subprocess) Kind() Kind   { return KindSubprocess }

// Open spawns the child.
func (s *Subprocess) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.spawn(); err != nil {
		return ircerr.WrapSource(s.Name(), "spawn", err)
	}
	return nil
}

// ReadLine reads one line of the child's stdout.
func (s *Subprocess) ReadLine(max int) (string, error) {
	s.mu.Lock()
	r := s.reader
	s.mu.Unlock()
	if r == nil {
		return "", ircerr.Hangup(os.ErrClosed)
	}
	return r.ReadLine(max)
}

// Forward writes line to the child's stdin.
func (s *Subprocess) Forward(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return ircerr.ErrNotConnected
	}
	_, err := io.WriteString(s.stdin, line)
	return err
}

// Recreate kills and reaps the current child and spawns a new one.
func (s *Subprocess) Recreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	if err := s.spawn(); err != nil {
		return ircerr.WrapSource(s.Name(), "recreate", err)
	}
	return nil
}

// Close kills the child.
func (s *Subprocess) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	return nil
}

// Pid returns the process id of the current child, or 0.
func (s *Subprocess) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Subprocess) spawn() error {
	cmd := shellCommand(s.command)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = stdout
	s.reader = linereader.New(stdout)
	s.logger.Info("started %q (pid %d)", s.command, cmd.Process.Pid)
	return nil
}

// stop must be called with s.mu held.
func (s *Subprocess) stop() {
	if s.cmd == nil {
		return
	}
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill() //nolint:errcheck
	}
	// Wait closes stdout, which unblocks a reader still in ReadLine.
	if err := s.cmd.Wait(); err != nil {
		s.logger.Debug("%s exited: %v", s.Name(), err)
	}
	s.cmd, s.stdin, s.stdout, s.reader = nil, nil, nil, nil
}

func shellCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd.exe", "/C", command)
	}
	return exec.Command("/bin/sh", "-c", command)
}
