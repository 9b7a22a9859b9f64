package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
	colorCyan   = lipgloss.Color("36")  // primary accents
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleDetail  = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

func printSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleSuccess.Render(iconSuccess), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleWarning.Render(iconWarning), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleError.Render(iconError), fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", styleDetail.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleDim.Render(iconInfo), fmt.Sprintf(format, args...))
}
