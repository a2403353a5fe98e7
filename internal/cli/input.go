package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// GetPassphrase prints a prompt to w and reads a passphrase from the user's
// terminal without echo. A newline is printed after the read to keep the UI
// tidy.
func GetPassphrase(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	return pw, nil
}

// GetNewPassphrase reads a passphrase twice and verifies both entries match.
func GetNewPassphrase(w io.Writer) ([]byte, error) {
	first, err := GetPassphrase(w, "Enter passphrase")
	if err != nil {
		return nil, err
	}
	second, err := GetPassphrase(w, "Repeat passphrase")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}
