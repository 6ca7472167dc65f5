package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/saneax/telephone-book/credentials"
)

func hashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret",
		Short: "Hash a secret for the credentials file",
		Long: "Read a secret from the terminal, or from stdin when it is not a terminal,\n" +
			"and print its argon2id hash for use as a value in the credentials file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := credentials.HashSecret(secret)
			clear(secret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// readSecret prompts on a terminal with echo disabled. Otherwise it reads
// the first line of in, without its line ending.
func readSecret(in io.Reader, prompt io.Writer) ([]byte, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint: gosec // fd fits in int
		fmt.Fprint(prompt, "Secret: ")
		secret, err := term.ReadPassword(int(f.Fd())) //nolint: gosec // fd fits in int
		fmt.Fprintln(prompt)
		if err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		if len(secret) == 0 {
			return nil, errors.New("secret is empty")
		}
		return secret, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("secret is empty")
	}
	return []byte(line), nil
}
