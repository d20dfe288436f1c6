package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

// MasterKeyRotator re-encrypts a user's fields under a new master key.
type MasterKeyRotator interface {
	RotateMasterKey(
		ctx context.Context,
		input userUseCase.RotateMasterKeyInput,
	) (*userUseCase.RotateMasterKeyOutput, error)
}

// RotateMasterKeyResult is the JSON shape of a rotate-master-key run.
type RotateMasterKeyResult struct {
	UserID        string `json:"user_id"`
	RowsRewritten int    `json:"rows_rewritten"`
}

// RunRotateMasterKey prompts for the account password, the current master key and the
// new master key twice, then rotates. Every session of the user is revoked by the rotation.
func RunRotateMasterKey(
	ctx context.Context,
	rotator MasterKeyRotator,
	logger *slog.Logger,
	streams IOTuple,
	email, format string,
) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	prompter := NewPrompter(streams)

	password, err := prompter.Secret("Password")
	if err != nil {
		return err
	}
	currentKey, err := prompter.Secret("Current master key")
	if err != nil {
		return err
	}
	newKey, err := prompter.SecretWithConfirmation("New master key")
	if err != nil {
		return err
	}
	if newKey == currentKey {
		return fmt.Errorf("new master key must differ from the current one")
	}

	logger.Info("rotating master key", slog.String("email", email))

	output, err := rotator.RotateMasterKey(ctx, userUseCase.RotateMasterKeyInput{
		Email:            email,
		Password:         password,
		CurrentMasterKey: currentKey,
		NewMasterKey:     newKey,
	})
	if err != nil {
		return fmt.Errorf("failed to rotate master key: %w", err)
	}

	logger.Info("master key rotated",
		slog.String("user_id", output.UserID.String()),
		slog.Int("rows_rewritten", output.RowsRewritten),
	)

	result := RotateMasterKeyResult{UserID: output.UserID.String(), RowsRewritten: output.RowsRewritten}
	return writeOutput(streams.Writer, format, result, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Master key rotated for %s: %d row(s) re-encrypted\n", email, output.RowsRewritten)
		_, _ = fmt.Fprintln(w, "All sessions were revoked. Log in again with the new master key.")
	})
}
