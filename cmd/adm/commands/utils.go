package commands

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"
)

// readPassword reads a secret from the terminal without echo. Tests swap it out.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

// maskDatabaseURL hides credentials in a connection string for display
func maskDatabaseURL(raw string) string {
	if raw == "" {
		return "not configured"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[INVALID]"
	}
	masked := u.Scheme + "://"
	if u.User != nil {
		masked += "***:***@"
	}
	return masked + u.Host + u.Path
}

// newTable returns a writer that aligns tab separated columns
func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}
