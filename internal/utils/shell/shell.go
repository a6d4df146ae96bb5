package shell

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// CurrentDir runs a command in the working directory of the process.
const CurrentDir = ""

// Executor runs shell command strings. dir is the working directory of the
// command and envVal holds extra KEY=VALUE pairs.
type Executor interface {
	ExecCmd(cmdStr string, dir string, envVal []string) (string, error)
	ExecCmdSilent(cmdStr string, dir string, envVal []string) (string, error)
	ExecCmdWithStream(cmdStr string, dir string, envVal []string) (string, error)
}

// DefaultExecutor runs commands through the host shell.
type DefaultExecutor struct{}

// Default is the executor used by the package level helpers. Tests replace it
// with a MockExecutor.
var Default Executor = &DefaultExecutor{}

func ExecCmd(cmdStr string, dir string, envVal []string) (string, error) {
	return Default.ExecCmd(cmdStr, dir, envVal)
}

func ExecCmdSilent(cmdStr string, dir string, envVal []string) (string, error) {
	return Default.ExecCmdSilent(cmdStr, dir, envVal)
}

func ExecCmdWithStream(cmdStr string, dir string, envVal []string) (string, error) {
	return Default.ExecCmdWithStream(cmdStr, dir, envVal)
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is not available
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// IsCommandExist checks if a command is available on the host
func IsCommandExist(cmd string) bool {
	output, err := ExecCmdSilent("command -v "+cmd, CurrentDir, nil)
	if err != nil {
		return false
	}
	return len(bytes.TrimSpace([]byte(output))) != 0
}

// GetFullCmdStr prefixes cmdStr with its environment assignments
func GetFullCmdStr(cmdStr string, dir string, envVal []string) (string, error) {
	if dir != CurrentDir {
		info, err := os.Stat(dir)
		if err != nil {
			return cmdStr, fmt.Errorf("working directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return cmdStr, fmt.Errorf("working directory %s is not a directory", dir)
		}
	}
	if len(envVal) == 0 {
		return cmdStr, nil
	}
	return strings.Join(envVal, " ") + " " + cmdStr, nil
}

func (e *DefaultExecutor) command(cmdStr string, dir string, envVal []string) (*exec.Cmd, string, error) {
	fullCmdStr, err := GetFullCmdStr(cmdStr, dir, envVal)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get full command string: %w", err)
	}
	cmd := exec.Command(getShell(), "-c", fullCmdStr)
	cmd.Dir = dir
	return cmd, fullCmdStr, nil
}

// ExecCmd executes a command and returns its combined output
func (e *DefaultExecutor) ExecCmd(cmdStr string, dir string, envVal []string) (string, error) {
	log := logger.Logger()
	cmd, fullCmdStr, err := e.command(cmdStr, dir, envVal)
	if err != nil {
		return "", err
	}
	log.Debugf("Exec: [%s] in %q", fullCmdStr, dir)

	output, err := cmd.CombinedOutput()
	outputStr := string(output)
	if err != nil {
		if outputStr != "" {
			log.Info(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	if outputStr != "" {
		log.Debug(outputStr)
	}
	return outputStr, nil
}

// ExecCmdSilent executes a command without logging its output
func (e *DefaultExecutor) ExecCmdSilent(cmdStr string, dir string, envVal []string) (string, error) {
	cmd, fullCmdStr, err := e.command(cmdStr, dir, envVal)
	if err != nil {
		return "", err
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	return string(output), nil
}

// ExecCmdWithStream executes a command and streams its output
func (e *DefaultExecutor) ExecCmdWithStream(cmdStr string, dir string, envVal []string) (string, error) {
	log := logger.Logger()
	cmd, fullCmdStr, err := e.command(cmdStr, dir, envVal)
	if err != nil {
		return "", err
	}
	log.Debugf("Exec: [%s] in %q", fullCmdStr, dir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stdout pipe for command %s: %w", fullCmdStr, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stderr pipe for command %s: %w", fullCmdStr, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", fullCmdStr, err)
	}

	var (
		wg  sync.WaitGroup
		out strings.Builder
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if str := scanner.Text(); str != "" {
				out.WriteString(str)
				out.WriteByte('\n')
				log.Info(str)
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if str := scanner.Text(); str != "" {
				log.Info(str)
			}
		}
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return out.String(), fmt.Errorf("failed to wait for command %s: %w", fullCmdStr, err)
	}
	return out.String(), nil
}
