package adminctl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/guardian/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// GetPassword prints prompt to w and reads a password from the terminal
// without echo. The caller should wipe the returned slice.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword asks for a password twice and returns it only when both
// entries match and are non-empty.
func GetNewPassword(w io.Writer) (string, error) {
	first, err := GetPassword(w, "Enter password: ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := GetPassword(w, "Confirm password: ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if len(first) == 0 {
		return "", ErrEmptyPassword
	}
	if !bytes.Equal(first, second) {
		return "", ErrPasswordMismatch
	}

	return string(first), nil
}
