package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

// shellSpecialChars have meaning to a POSIX shell
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ExecRunner runs download tools in the foreground. The tool's output goes to
// the terminal; start and end markers go to the daily download log.
type ExecRunner struct {
	logsDir string
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
}

// NewExecRunner creates a runner. An empty logsDir disables the download log.
func NewExecRunner(logsDir string, logger *zap.Logger) *ExecRunner {
	return &ExecRunner{
		logsDir: logsDir,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logger,
	}
}

// SetOutput redirects the tool's stdout and stderr
func (r *ExecRunner) SetOutput(stdout, stderr io.Writer) {
	r.stdout = stdout
	r.stderr = stderr
}

// LookPath resolves tool on PATH
func (r *ExecRunner) LookPath(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, tool)
	}
	return path, nil
}

// Run executes tool with args and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, tool string, args []string) error {
	binary, err := r.LookPath(tool)
	if err != nil {
		return err
	}

	cmdLine := FormatCommandLine(tool, args...)
	r.logger.Debug("Running download tool", zap.String("command", cmdLine))

	logFile := r.openLogFile()
	if logFile != nil {
		defer logFile.Close()
		writeLogHeader(logFile, cmdLine)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	err = cmd.Run()
	if logFile != nil {
		if err != nil {
			writeLogFooter(logFile, false, err.Error())
		} else {
			writeLogFooter(logFile, true, tool+" exited normally")
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", tool, err)
	}
	return nil
}

// openLogFile opens the download log for today. Failures are logged and
// leave the download unlogged.
func (r *ExecRunner) openLogFile() *os.File {
	if r.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.logsDir, 0755); err != nil {
		r.logger.Warn("Failed to create logs directory", zap.Error(err))
		return nil
	}

	dateStr := time.Now().Format("20060102")
	path := filepath.Join(r.logsDir, "download-"+dateStr+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.logger.Warn("Failed to open download log", zap.Error(err))
		return nil
	}
	return file
}

func writeLogHeader(w io.Writer, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download ===\n", timestamp)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

// FormatCommandLine renders a command for display with every argument quoted
// the way a POSIX shell would need it. exec.Command never goes through a shell.
func FormatCommandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
