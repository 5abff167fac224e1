package domain

import (
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

const (
	minUserNameLength = 1
	maxUserNameLength = 255
)

// UserName is a non-empty, printable string of at most 255 codepoints
// after surrounding whitespace is trimmed. Domain equality (used by
// rename) is case-insensitive; the repository's name scan is not —
// see the case-sensitivity note on store.Repository.FindByName.
type UserName struct {
	value string
}

// NewUserName validates and constructs a UserName, trimming surrounding
// whitespace first.
func NewUserName(raw string) (UserName, error) {
	trimmed := strings.TrimSpace(raw)

	if !govalidator.StringLength(trimmed, "1", "255") {
		length := len([]rune(trimmed))
		if length < minUserNameLength {
			return UserName{}, eventsourcing.NewAppError("validation", "name must not be empty").
				WithSolution("provide a non-empty name")
		}
		return UserName{}, eventsourcing.NewAppError("validation", "name must be at most 255 codepoints long").
			WithSolution("shorten the name to 255 codepoints or fewer")
	}

	for _, r := range trimmed {
		if !unicode.IsPrint(r) {
			return UserName{}, eventsourcing.NewAppError("validation", "name must consist of printable characters").
				WithSolution("remove control characters from the name")
		}
	}

	return UserName{value: trimmed}, nil
}

// Value returns the underlying string.
func (n UserName) Value() string {
	return n.value
}

// String implements fmt.Stringer.
func (n UserName) String() string {
	return n.value
}

// EqualsIgnoringCase reports whether two names are equal under simple
// case folding.
func (n UserName) EqualsIgnoringCase(other UserName) bool {
	return strings.EqualFold(n.value, other.value)
}

// CanBeRenamedTo reports whether other differs from n under case
// folding; renaming to the same name (any case) is rejected.
func (n UserName) CanBeRenamedTo(other UserName) bool {
	return !n.EqualsIgnoringCase(other)
}
