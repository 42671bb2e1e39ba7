package format

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/reqbook/internal/model"
)

// Out is where every Print function writes
var Out io.Writer = color.Output

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			// Allow common whitespace characters
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	warnColor      = color.New(color.FgYellow)
)

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

// StatusLine renders "200 OK"; codes without a reason phrase render bare
func StatusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}

// =============================================================================
// Hosts and Endpoints
// =============================================================================

// PrintHosts prints every host in store order
func PrintHosts(hosts []model.Host) {
	if len(hosts) == 0 {
		dimColor.Fprintln(Out, "No hosts yet. Add one with: reqbook host add <address>")
		return
	}

	fmt.Fprintln(Out, "Hosts:")
	for _, h := range hosts {
		headerKeyColor.Fprintf(Out, "  %s", sanitizeOutput(h.Address))
		if h.Label != "" {
			fmt.Fprintf(Out, " %s", sanitizeOutput(h.Label))
		}
		dimColor.Fprintf(Out, " (%s, %s)\n",
			plural(len(h.Endpoints), "endpoint"), plural(len(h.DefaultHeaders), "header"))
	}
}

// PrintHost prints a host's headers and endpoints. Sensitive header values
// are redacted unless showSecrets is set.
func PrintHost(h model.Host, showSecrets bool) {
	headerKeyColor.Fprintf(Out, "%s\n", sanitizeOutput(h.Address))
	if h.Label != "" {
		dimColor.Fprintf(Out, "Label: %s\n", sanitizeOutput(h.Label))
	}
	fmt.Fprintln(Out, strings.Repeat("-", 40))

	fmt.Fprintln(Out, "Default headers:")
	if len(h.DefaultHeaders) == 0 {
		dimColor.Fprintln(Out, "  (none)")
	}
	for _, item := range h.DefaultHeaders {
		value := item.Value
		if !showSecrets {
			value = RedactHeader(item.Key, value)
		}
		printToggleable(item.Key, value, item.Disabled)
	}

	fmt.Fprintln(Out, "\nEndpoints:")
	if len(h.Endpoints) == 0 {
		dimColor.Fprintln(Out, "  (none)")
	}
	for i, ep := range h.Endpoints {
		dimColor.Fprintf(Out, "  [%d] ", i+1)
		methodColor.Fprintf(Out, "%-7s ", ep.HTTPMethod)
		urlColor.Fprintf(Out, "%s", sanitizeOutput(ep.Path))
		if ep.Label != "" {
			fmt.Fprintf(Out, "  %s", sanitizeOutput(ep.Label))
		}
		dimColor.Fprintf(Out, " (%s)\n", plural(len(ep.Responses), "response"))
	}
}

// PrintEndpoint prints an endpoint with the URL it currently resolves to
func PrintEndpoint(ep model.Endpoint, target string) {
	methodColor.Fprintf(Out, "%s ", ep.HTTPMethod)
	urlColor.Fprintln(Out, sanitizeOutput(target))
	if ep.Label != "" {
		dimColor.Fprintf(Out, "Label: %s\n", sanitizeOutput(ep.Label))
	}
	fmt.Fprintln(Out, strings.Repeat("-", 40))

	fmt.Fprintln(Out, "Query items:")
	if len(ep.QueryItems) == 0 {
		dimColor.Fprintln(Out, "  (none)")
	}
	for _, q := range ep.QueryItems {
		printToggleable(q.Name, q.Value, q.Disabled)
	}

	dimColor.Fprintf(Out, "\n%s recorded\n", plural(len(ep.Responses), "response"))
}

func printToggleable(key, value string, disabled bool) {
	if disabled {
		dimColor.Fprintf(Out, "  %s: %s (disabled)\n", sanitizeOutput(key), sanitizeOutput(value))
		return
	}
	headerKeyColor.Fprintf(Out, "  %s: ", sanitizeOutput(key))
	fmt.Fprintln(Out, sanitizeOutput(value))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// =============================================================================
// Responses
// =============================================================================

// PrintResponseList prints an endpoint's history, newest first
func PrintResponseList(responses []model.ResponseRecord, limit int) {
	if len(responses) == 0 {
		dimColor.Fprintln(Out, "No responses recorded")
		return
	}

	count := len(responses)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		r := responses[i]
		dimColor.Fprintf(Out, "[%d] ", i+1)
		getStatusColor(r.StatusCode).Fprintf(Out, "%-28s ", StatusLine(r.StatusCode))
		fmt.Fprintf(Out, "%s ", r.ReceivedAt.Local().Format("2006-01-02 15:04:05"))
		dimColor.Fprintf(Out, "%8s  %s\n", byteSize(r.Size()), r.ID)
	}

	if limit > 0 && len(responses) > limit {
		dimColor.Fprintf(Out, "\n... and %d more responses\n", len(responses)-limit)
	}
}

// PrintResponse prints one record with its payload
func PrintResponse(r model.ResponseRecord) {
	getStatusColor(r.StatusCode).Fprintln(Out, StatusLine(r.StatusCode))
	dimColor.Fprintf(Out, "  ID: %s\n", r.ID)
	dimColor.Fprintf(Out, "  Received: %s\n", r.ReceivedAt.Local().Format("2006-01-02 15:04:05"))
	dimColor.Fprintf(Out, "  Size: %s\n\n", byteSize(r.Size()))

	text, kind := RenderPayload(r.Payload)
	switch kind {
	case PayloadEmpty, PayloadBinary:
		dimColor.Fprintln(Out, text)
	case PayloadMalformed:
		warnColor.Fprintln(Out, "(payload is not valid JSON, showing raw text)")
		fmt.Fprintln(Out, sanitizeOutput(text))
	default:
		fmt.Fprintln(Out, sanitizeOutput(text))
	}
}

func byteSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(Out, "✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(Out, "✗ %s\n", msg)
}

// PrintWarning prints a warning that does not stop the command
func PrintWarning(msg string) {
	warnColor.Fprintf(Out, "! %s\n", msg)
}
