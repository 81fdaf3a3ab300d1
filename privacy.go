package visage

import "fmt"

// PrivacyFlag is the per-field openness level stored on a user's privacy
// settings. The scale is a total order, ascending openness:
//
//	Private < FriendsOnly < Public
//
// The numeric ordering is load-bearing: disclosure decisions compare stored
// openness against a viewer threshold with >=, never set membership. Do not
// reorder these constants.
type PrivacyFlag int

const (
	// PrivacyPrivate restricts a field to the account owner (and privileged
	// viewers, which collapse to the same threshold).
	PrivacyPrivate PrivacyFlag = iota

	// PrivacyFriendsOnly discloses a field to mutually friended viewers.
	PrivacyFriendsOnly

	// PrivacyPublic discloses a field to any viewer that can see the row.
	PrivacyPublic
)

func (f PrivacyFlag) String() string {
	switch f {
	case PrivacyPrivate:
		return "private"
	case PrivacyFriendsOnly:
		return "friends"
	case PrivacyPublic:
		return "public"
	default:
		return fmt.Sprintf("PrivacyFlag(%d)", int(f))
	}
}

// Valid reports whether f is one of the three defined levels.
// Values outside the scale come from corrupt rows and must not be trusted.
func (f PrivacyFlag) Valid() bool {
	return f >= PrivacyPrivate && f <= PrivacyPublic
}

// RelationshipClass is the derived category of a viewer relative to a target.
// It is computed per (viewer, target) pair and never stored.
type RelationshipClass int

const (
	// ClassSelf means the viewer is the target.
	ClassSelf RelationshipClass = iota

	// ClassPrivileged means the viewer is an admin or moderator.
	// Role overrides relationship: an admin who is also a friend is Privileged.
	ClassPrivileged

	// ClassFriend means a bidirectional friend link exists.
	ClassFriend

	// ClassStranger is every other pair.
	ClassStranger
)

func (c RelationshipClass) String() string {
	switch c {
	case ClassSelf:
		return "self"
	case ClassPrivileged:
		return "privileged"
	case ClassFriend:
		return "friend"
	case ClassStranger:
		return "stranger"
	default:
		return fmt.Sprintf("RelationshipClass(%d)", int(c))
	}
}

// Classify derives the relationship class for a viewer against a target row.
// isSelf and isFriend are the booleans the compiled query computed in SQL.
//
// Evaluation order matters: Self and Privileged are checked strictly before
// Friend, so a privileged viewer always lands on the Private threshold even
// when a friend link exists.
func Classify(viewer Identity, isSelf, isFriend bool) RelationshipClass {
	switch {
	case isSelf:
		return ClassSelf
	case viewer.Privileged():
		return ClassPrivileged
	case isFriend:
		return ClassFriend
	default:
		return ClassStranger
	}
}

// Threshold returns the minimum stored openness a field needs to be disclosed
// to a viewer of this class. Self and Privileged collapse to PrivacyPrivate,
// the floor of the scale, so every gated field is disclosed to them.
func (c RelationshipClass) Threshold() PrivacyFlag {
	switch c {
	case ClassSelf, ClassPrivileged:
		return PrivacyPrivate
	case ClassFriend:
		return PrivacyFriendsOnly
	default:
		return PrivacyPublic
	}
}
