package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"

	"github.com/trustfreeze/backend/internal/models"
)

const MaxReasonLength = 500

var assetCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// ValidationError reports malformed caller input. It is always raised before
// any ledger or database call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func validateAccountID(field, id string) error {
	if !strkey.IsValidEd25519PublicKey(id) {
		return invalid(field, "not a valid account id")
	}
	return nil
}

func validateAssetCode(code string) error {
	if !assetCodePattern.MatchString(code) {
		return invalid("asset_code", "must be 1-12 uppercase letters or digits")
	}
	return nil
}

func validateAction(action models.FreezeAction) error {
	if !action.Valid() {
		return invalid("action", "must be %q or %q", models.FreezeActionFreeze, models.FreezeActionUnfreeze)
	}
	return nil
}

// normalizeReason returns nil for a blank reason. Anything else is kept
// exactly as given.
func normalizeReason(reason string) (*string, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, invalid("reason", "must be at most %d characters", MaxReasonLength)
	}
	return &reason, nil
}

func parseIssuerKey(secret string) (*keypair.Full, error) {
	kp, err := keypair.ParseFull(strings.TrimSpace(secret))
	if err != nil {
		return nil, invalid("issuer_secret", "not a valid secret seed")
	}
	return kp, nil
}
