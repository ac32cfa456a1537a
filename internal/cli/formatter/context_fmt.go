package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/service"
)

// imageLabelWidth keeps base64 payloads from flooding the terminal.
const imageLabelWidth = 64

// FormatContext renders the hidden context exactly as it would be sent,
// followed by gathered images and textbook sources.
func FormatContext(bundle *service.ContextBundle) string {
	var b strings.Builder

	b.WriteString(Header(fmt.Sprintf("context (%d messages)", len(bundle.Messages))))
	b.WriteString("\n")
	for i, m := range bundle.Messages {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("[%d]", i+1)), RoleLabel(m.Role, m.Hidden))
		b.WriteString(Indent(messageBody(m), "    "))
		b.WriteString("\n")
	}

	if len(bundle.Images) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("images"))
		b.WriteString("\n")
		for _, src := range bundle.Images {
			fmt.Fprintf(&b, "  • %s\n", ImageLabel(src))
		}
	}

	if len(bundle.TextbookSources) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("textbook"))
		b.WriteString("\n")
		for _, link := range bundle.TextbookSources {
			fmt.Fprintf(&b, "  • %s\n", StyleBlue.Render(link))
		}
	}
	return b.String()
}

// ImageLabel shortens data URLs to their media type and size.
func ImageLabel(src string) string {
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		mime, payload, _ := strings.Cut(rest, ",")
		mime = strings.TrimSuffix(mime, ";base64")
		return fmt.Sprintf("%s %s", mime, Dim(fmt.Sprintf("(%d bytes inline)", len(payload))))
	}
	return Snippet(src, imageLabelWidth)
}

func messageBody(m chat.Message) string {
	text := strings.TrimRight(m.Text(), "\n")
	if text == "" {
		return Dim("(empty)")
	}
	return text
}
