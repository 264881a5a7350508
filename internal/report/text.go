package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
)

// TextReporter prints the master password followed by one block per
// credential, separated by a dashed line.
type TextReporter struct {
	opts *reportOpts
}

var _ Reporter = (*TextReporter)(nil)

func (tr *TextReporter) Report(w io.Writer, r *resolver.Result) error {
	bw := bufio.NewWriter(w)
	separator := strings.Repeat("-", tr.opts.width)

	fmt.Fprintf(bw, "Master password is : %s\n", r.Master)

	for _, c := range r.Credentials {
		fmt.Fprintln(bw, separator)

		if c.Host != "" {
			fmt.Fprintf(bw, "Credentials for %s %s (%s) are :\n", c.Kind, c.ID, c.Host)
		} else {
			fmt.Fprintf(bw, "Credentials for %s %s are :\n", c.Kind, c.ID)
		}
		fmt.Fprintf(bw, "Username : %s\n", c.Username)
		fmt.Fprintf(bw, "Password : %s\n", tr.field(c, resolver.FieldPassword, c.Password))

		if c.PrivateKey != "" {
			fmt.Fprintf(bw, "Private key : %s\n", c.PrivateKey)
		}
		if c.Passphrase != "" || c.FailedField == resolver.FieldPassphrase {
			fmt.Fprintf(bw, "Passphrase : %s\n", tr.field(c, resolver.FieldPassphrase, c.Passphrase))
		}
	}

	return bw.Flush()
}

func (tr *TextReporter) field(c resolver.Credential, name, value string) string {
	if c.FailedField != name {
		return value
	}
	return colorize(tr.opts.color, ColorFailure, failureText(c.Err))
}
