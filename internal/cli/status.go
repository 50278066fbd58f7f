package tariffadvisor

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mwiater/tariffadvisor/internal/logging"
)

var (
	infoText    = color.New(color.FgCyan).SprintFunc()
	successText = color.New(color.FgGreen).SprintFunc()
)

// status logs a line and echoes it to out.
func status(out io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.LogEvent("%s", msg)
	fmt.Fprintln(out, infoText(msg))
}

// success prints a final result line.
func success(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, successText(fmt.Sprintf(format, args...)))
}
