// Package emoji validates reaction strings.
package emoji

import (
	"github.com/forPelevin/gomoji"
	"github.com/pkg/errors"
)

// ErrInvalidReaction is returned when a reaction is not exactly one emoji.
var ErrInvalidReaction = errors.New("reaction must be a single emoji")

// ValidateReaction checks that the reaction contains a single emoji and
// nothing else.
func ValidateReaction(reaction string) error {
	if len(gomoji.RemoveEmojis(reaction)) > 0 {
		return ErrInvalidReaction
	}
	if len(gomoji.FindAll(reaction)) != 1 {
		return ErrInvalidReaction
	}
	return nil
}
