package compose

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
)

// ErrValidation marks generated content that does not meet the quality bar.
var ErrValidation = errors.New("generated content failed validation")

// Transitions are the story connectors a script must use.
var Transitions = []string{
	"first up", "next", "and finally", "meanwhile", "leading off", "moving on",
	"lastly", "also", "wrapping up",
}

// MinTransitions is the minimum distinct transitions in a script.
const MinTransitions = 2

type bounds struct{ min, max int }

var (
	socialBounds  = bounds{50, 280}
	motionBounds  = bounds{50, 300}
	captionBounds = bounds{30, 100}
)

// Validate checks a generated bundle against the profile.
func Validate(b content.Bundle, p profile.Profile) error {
	if !strings.HasPrefix(b.Script, p.Opening) {
		return fmt.Errorf("%w: script does not start with %q", ErrValidation, p.Opening)
	}
	if n := countTransitions(b.Script); n < MinTransitions {
		return fmt.Errorf("%w: script has %d transitions, want at least %d", ErrValidation, n, MinTransitions)
	}
	if n, want := len(strings.Fields(b.Script)), p.MinWords(); n < want {
		return fmt.Errorf("%w: script has %d words, want at least %d", ErrValidation, n, want)
	}
	if err := checkLen("social post", b.SocialPost, socialBounds); err != nil {
		return err
	}
	if err := checkLen("motion script", b.MotionScript, motionBounds); err != nil {
		return err
	}
	return checkLen("caption", b.VideoCaption, captionBounds)
}

func countTransitions(script string) int {
	lower := strings.ToLower(script)
	n := 0
	for _, t := range Transitions {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

func checkLen(name, s string, b bounds) error {
	n := utf8.RuneCountInString(s)
	if n < b.min || n > b.max {
		return fmt.Errorf("%w: %s is %d characters, want %d-%d", ErrValidation, name, n, b.min, b.max)
	}
	return nil
}
