package common

import (
	"fmt"
	"strings"

	"statement-ledger-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatStatementLine renders one entry as a single console line, withdrawals
// shown with a leading minus
func FormatStatementLine(st models.Statement) string {
	line := fmt.Sprintf("%s  %-8s %14s  %s",
		st.CreatedAt.Format("2006-01-02 15:04:05"), st.Type, st.Signed().StringFixed(2), st.Id)
	if st.Description != "" {
		line += "  " + st.Description
	}
	return line
}

// PrintStatements prints a box-drawn list of entries
func PrintStatements(statements []models.Statement) {
	if len(statements) == 0 {
		fmt.Println("└  (no statements)")
		return
	}
	for i, st := range statements {
		fmt.Println(BoxPrefix(i == len(statements)-1) + FormatStatementLine(st))
	}
}
