package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/ui"
)

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := os.Stdout

	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s\n", cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	printUsageLines(w, cmd)

	if cmd.HasExample() {
		section(w, "Examples")
		lastWasCommand := false
		for _, example := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(example)
			switch {
			case trimmed == "":
				continue
			case strings.HasPrefix(trimmed, "#"):
				if lastWasCommand {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
				lastWasCommand = false
			default:
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, strings.TrimPrefix(trimmed, "$ "), ui.ColorReset)
				lastWasCommand = true
			}
		}
	}

	printCommands(w, cmd)

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printFlags(w, cmd.InheritedFlags().FlagUsages())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%sUse \"%s%s%s %s<command>%s %s--help%s\" for more information about a command.%s\n",
			ui.ColorDim,
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset+ui.ColorDim,
			ui.ColorYellow, ui.ColorReset+ui.ColorDim,
			ui.ColorGreen, ui.ColorReset+ui.ColorDim,
			ui.ColorReset)
	}
	fmt.Fprintln(w)
}

// customUsageFunc prints the short usage shown after a bad invocation
func customUsageFunc(cmd *cobra.Command) error {
	w := os.Stderr

	printUsageLines(w, cmd)
	printCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%sUse \"%s%s%s %s--help%s\" for more information.%s\n",
		ui.ColorDim,
		ui.ColorCyan, cmd.CommandPath(), ui.ColorReset+ui.ColorDim,
		ui.ColorGreen, ui.ColorReset+ui.ColorDim,
		ui.ColorReset)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

func printUsageLines(w io.Writer, cmd *cobra.Command) {
	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}
}

func printCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	section(w, "Commands")

	var available []*cobra.Command
	maxLen := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			available = append(available, c)
			maxLen = max(maxLen, len(c.Name()))
		}
	}
	for _, c := range available {
		padding := strings.Repeat(" ", maxLen-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorCyan, c.Name(), ui.ColorReset,
			padding,
			ui.ColorDim, c.Short, ui.ColorReset)
	}
}

// printFlags prints pflag usages with the flag names aligned and colored
func printFlags(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flagPart)))
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")

		if !strings.HasPrefix(trimmed, "-") {
			// continuation of the previous description
			fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", width+4), ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}

		flagPart, descPart, ok := strings.Cut(trimmed, "  ")
		if !ok {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}
		flagPart = strings.TrimSpace(flagPart)
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorGreen, flagPart, ui.ColorReset,
			strings.Repeat(" ", width-len(flagPart)+2),
			ui.ColorDim, strings.TrimSpace(descPart), ui.ColorReset)
	}
}

// wrapText wraps text at width, keeping paragraphs and list items intact
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var wrapped []string
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
				wrapped = append(wrapped, line)
				continue
			}

			var current strings.Builder
			for _, word := range strings.Fields(line) {
				switch {
				case current.Len() == 0:
				case current.Len()+1+len(word) <= width:
					current.WriteString(" ")
				default:
					wrapped = append(wrapped, current.String())
					current.Reset()
				}
				current.WriteString(word)
			}
			if current.Len() > 0 {
				wrapped = append(wrapped, current.String())
			}
		}
		if len(wrapped) > 0 {
			paragraphs = append(paragraphs, strings.Join(wrapped, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
