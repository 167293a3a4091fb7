package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"
)

// StaticApprover approves every request and answers with a fixed passphrase.
type StaticApprover struct {
	Secret string
	Deny   bool
}

func (a StaticApprover) ApproveAccounts(ctx context.Context, accounts []common.Address) (bool, error) {
	return !a.Deny, nil
}

func (a StaticApprover) Passphrase(ctx context.Context, account common.Address) (string, error) {
	return a.Secret, nil
}

// ErrNotATerminal is returned when prompting without an interactive terminal.
var ErrNotATerminal = errors.New("stdin is not a terminal")

// TerminalApprover prompts on the controlling terminal.
type TerminalApprover struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalApprover prompts on stdin and writes to stderr.
func NewTerminalApprover() *TerminalApprover {
	return &TerminalApprover{In: os.Stdin, Out: os.Stderr}
}

func (a *TerminalApprover) ApproveAccounts(ctx context.Context, accounts []common.Address) (bool, error) {
	if !term.IsTerminal(int(a.In.Fd())) {
		return false, ErrNotATerminal
	}

	fmt.Fprintf(a.Out, "Expose %d account(s) to devicectl?\n", len(accounts))
	for _, acct := range accounts {
		fmt.Fprintf(a.Out, "  %s\n", acct.Hex())
	}
	fmt.Fprint(a.Out, "Approve [y/N]: ")

	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (a *TerminalApprover) Passphrase(ctx context.Context, account common.Address) (string, error) {
	fd := int(a.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotATerminal
	}

	fmt.Fprintf(a.Out, "Passphrase for %s: ", account.Hex())
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(a.Out)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}
