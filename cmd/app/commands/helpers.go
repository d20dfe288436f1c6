// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"golang.org/x/term"

	"github.com/signmeup/signmeup/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// Prompter asks for secrets. When the reader is a terminal input is not echoed,
// otherwise one line is read per prompt so tests and pipes can drive it.
type Prompter struct {
	io     IOTuple
	lines  *bufio.Reader
	fd     int
	isTerm bool
}

// NewPrompter returns a Prompter reading from streams.Reader and writing prompts to streams.Writer.
func NewPrompter(streams IOTuple) *Prompter {
	p := &Prompter{io: streams, fd: -1}
	if f, ok := streams.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	} else {
		p.lines = bufio.NewReader(streams.Reader)
	}
	return p
}

// Secret prints label and reads one secret. Empty input is an error.
func (p *Prompter) Secret(label string) (string, error) {
	_, _ = fmt.Fprintf(p.io.Writer, "%s: ", label)

	var value string
	if p.isTerm {
		raw, err := term.ReadPassword(p.fd)
		_, _ = fmt.Fprintln(p.io.Writer)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		value = string(raw)
	} else {
		line, err := p.lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		value = strings.TrimRight(line, "\r\n")
	}

	if value == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return value, nil
}

// SecretWithConfirmation reads a secret twice and fails when the entries differ.
func (p *Prompter) SecretWithConfirmation(label string) (string, error) {
	first, err := p.Secret(label)
	if err != nil {
		return "", err
	}
	second, err := p.Secret("Confirm " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("%s entries do not match", strings.ToLower(label))
	}
	return first, nil
}

// writeOutput renders result as indented JSON when format is "json" and calls text otherwise.
func writeOutput(writer io.Writer, format string, result any, text func(io.Writer)) error {
	if format != "json" {
		text(writer)
		return nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(writer, string(jsonBytes))
	return err
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}
