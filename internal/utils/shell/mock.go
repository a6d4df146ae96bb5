package shell

import (
	"fmt"
	"regexp"
	"sync"
)

// MockCommand describes the canned result for commands matching Pattern.
// Pattern is a regular expression tested against the command string.
type MockCommand struct {
	Pattern string
	Output  string
	Error   error
}

// ExecutedCommand records one call made against a MockExecutor.
type ExecutedCommand struct {
	Cmd      string
	Dir      string
	Streamed bool
}

// MockExecutor answers commands from a list of MockCommands. The first
// matching pattern wins; unmatched commands fail.
type MockExecutor struct {
	commands []MockCommand

	mu       sync.Mutex
	executed []ExecutedCommand
}

func NewMockExecutor(commands []MockCommand) *MockExecutor {
	return &MockExecutor{commands: commands}
}

// Executed returns the commands run so far in call order.
func (m *MockExecutor) Executed() []ExecutedCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedCommand(nil), m.executed...)
}

func (m *MockExecutor) run(cmdStr, dir string, streamed bool) (string, error) {
	m.mu.Lock()
	m.executed = append(m.executed, ExecutedCommand{Cmd: cmdStr, Dir: dir, Streamed: streamed})
	m.mu.Unlock()

	for _, c := range m.commands {
		matched, err := regexp.MatchString(c.Pattern, cmdStr)
		if err != nil {
			return "", fmt.Errorf("invalid mock pattern %q: %w", c.Pattern, err)
		}
		if matched {
			return c.Output, c.Error
		}
	}
	return "", fmt.Errorf("unexpected command: %s", cmdStr)
}

func (m *MockExecutor) ExecCmd(cmdStr string, dir string, envVal []string) (string, error) {
	return m.run(cmdStr, dir, false)
}

func (m *MockExecutor) ExecCmdSilent(cmdStr string, dir string, envVal []string) (string, error) {
	return m.run(cmdStr, dir, false)
}

func (m *MockExecutor) ExecCmdWithStream(cmdStr string, dir string, envVal []string) (string, error) {
	return m.run(cmdStr, dir, true)
}
