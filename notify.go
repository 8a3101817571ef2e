package comply

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

// NotificationSurface displays messages to the user. Implementations range
// from rich modal dialogs to plain terminal output; the session core only
// cares about the blocking/non-blocking distinction.
type NotificationSurface interface {
	// ShowBlocking displays a message that must be acknowledged before
	// control returns to the caller.
	ShowBlocking(title, message string)
	// ShowToast displays a transient, non-blocking message.
	ShowToast(message string)
}

// TerminalNotifier is the fallback NotificationSurface: plain writes to a
// terminal stream.
type TerminalNotifier struct {
	Out io.Writer
}

func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{Out: os.Stderr}
}

func (t *TerminalNotifier) ShowBlocking(title, message string) {
	fmt.Fprintf(t.Out, "\n%s\n\n%s\n\n", title, message)
}

func (t *TerminalNotifier) ShowToast(message string) {
	fmt.Fprintf(t.Out, "%s\n", message)
}

// Navigator moves the user to the sign-in entry point after a session ends.
// The params carry the preserved tenant correlation parameter and, for
// system-initiated teardown, the timeout marker.
type Navigator interface {
	NavigateToSignIn(params url.Values)
}

// SignInPrompter is the terminal Navigator: it tells the user how to start a
// fresh session rather than redirecting a browser.
type SignInPrompter struct {
	Out io.Writer
	// SignInURL, when set, is included in the prompt with params appended.
	SignInURL string
}

func NewSignInPrompter(signInURL string) *SignInPrompter {
	return &SignInPrompter{Out: os.Stderr, SignInURL: signInURL}
}

func (s *SignInPrompter) NavigateToSignIn(params url.Values) {
	if s.SignInURL == "" {
		fmt.Fprintln(s.Out, "Please sign in again to continue.")
		return
	}
	target, err := appendParams(s.SignInURL, params)
	if err != nil {
		fmt.Fprintln(s.Out, "Please sign in again to continue.")
		return
	}
	fmt.Fprintf(s.Out, "Please visit  %s  to sign in again.\n", target)
}

func appendParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "error parsing sign-in URL %q", rawURL)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
