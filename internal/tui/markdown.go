package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// descriptionStyle renders challenge descriptions flush with the detail
// panel. Inline code keeps the accent colour so connection strings and flag
// formats stand out.
var descriptionStyle = func() ansi.StyleConfig {
	s := styles.DarkStyleConfig
	zero := uint(0)
	s.Document.Margin = &zero
	s.Document.StylePrimitive.BlockPrefix = ""
	s.Document.StylePrimitive.BlockSuffix = ""
	accent := string(PrimaryColor)
	s.Code.StylePrimitive.Color = &accent
	s.Code.StylePrimitive.Prefix = ""
	s.Code.StylePrimitive.Suffix = ""
	return s
}()

// renderGlamour renders a challenge description for a panel of the given
// width. Descriptions glamour cannot parse are shown raw.
func renderGlamour(description string, width int) string {
	description = strings.ReplaceAll(description, "\r\n", "\n")
	if width <= 0 || strings.TrimSpace(description) == "" {
		return ""
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(descriptionStyle),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return description
	}
	out, err := r.Render(description)
	if err != nil {
		return description
	}
	return strings.Trim(out, "\n ")
}

// ansiPattern matches SGR sequences and OSC 8 hyperlinks.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b\]8;[^\x1b\a]*(\x1b\\|\a)`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
