package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dllstage/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleMissing for unresolved DLL names.
	StyleMissing = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeading = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printWarning prints a warning message to stderr.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printStats prints closure statistics on a single line.
func printStats(resolved, inspected int) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf("%d resolved · %d inspected", resolved, inspected)))
}

// =============================================================================
// Errors
// =============================================================================

// PrintError writes err to w. Unresolved dependencies are written as the
// search path followed by the missing names, one per line.
func PrintError(w io.Writer, err error) {
	var missing *errors.MissingError
	if stderrors.As(err, &missing) {
		printMissingReport(w, missing)
		return
	}
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+errors.UserMessage(err))
}

func printMissingReport(w io.Writer, e *errors.MissingError) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+e.Error())
	fmt.Fprintln(w, styleHeading.Render("search path:"))
	if len(e.SearchPath) == 0 {
		fmt.Fprintln(w, "  "+StyleDim.Render("(empty)"))
	}
	for _, dir := range e.SearchPath {
		fmt.Fprintln(w, "  "+dir)
	}
	fmt.Fprintln(w, styleHeading.Render("missing dependencies:"))
	for _, name := range e.Missing {
		line := "  " + StyleMissing.Render(name)
		if files := e.NeededBy[name]; len(files) > 0 {
			line += " " + StyleDim.Render("(needed by "+strings.Join(files, ", ")+")")
		}
		fmt.Fprintln(w, line)
	}
}
