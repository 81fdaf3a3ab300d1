package visage

import "fmt"

// Schema describes the tables and columns the compiler generates SQL against.
// It is an explicit value injected at Compiler construction, not process-wide
// state, so tests and multi-tenant deployments can point the same compiler
// code at differently named tables.
//
// Identifiers from a Schema are the only text ever interpolated into query
// strings, and they are quoted before interpolation. User-supplied values are
// always bound as parameters.
type Schema struct {
	UsersTable   string
	FriendsTable string
	PrivacyTable string

	User    UserColumns
	Friend  FriendColumns
	Privacy PrivacyColumns
}

// UserColumns names the columns of the users table.
type UserColumns struct {
	ID                      string
	UserCode                string
	Email                   string
	Name                    string
	Phone                   string
	Location                string
	Birthday                string
	ContainsExplicitContent string
	IsAdmin                 string
	IsModerator             string
	Active                  string
	PrivacySettingsID       string
}

// FriendColumns names the columns of the friend-link table. A link row
// (user_a, user_b) is considered bidirectional; the compiler matches both
// orientations.
type FriendColumns struct {
	UserA string
	UserB string
}

// PrivacyColumns names the columns of the privacy settings table.
type PrivacyColumns struct {
	ID                  string
	EmailPrivacy        string
	PhonePrivacy        string
	LocationPrivacy     string
	BirthdayPrivacy     string
	DefaultPostPrivacy  string
	DefaultImagePrivacy string
	DiscoverableByEmail string
	DiscoverableByName  string
	DiscoverableByPhone string
}

// DefaultSchema returns the schema matching the DDL in the sql package.
func DefaultSchema() Schema {
	return Schema{
		UsersTable:   "users",
		FriendsTable: "friends",
		PrivacyTable: "privacy_settings",
		User: UserColumns{
			ID:                      "id",
			UserCode:                "user_code",
			Email:                   "email",
			Name:                    "name",
			Phone:                   "phone",
			Location:                "location",
			Birthday:                "birthday",
			ContainsExplicitContent: "contains_explicit_content",
			IsAdmin:                 "is_admin",
			IsModerator:             "is_moderator",
			Active:                  "active",
			PrivacySettingsID:       "privacy_settings_id",
		},
		Friend: FriendColumns{
			UserA: "user_a",
			UserB: "user_b",
		},
		Privacy: PrivacyColumns{
			ID:                  "id",
			EmailPrivacy:        "email_privacy",
			PhonePrivacy:        "phone_privacy",
			LocationPrivacy:     "location_privacy",
			BirthdayPrivacy:     "birthday_privacy",
			DefaultPostPrivacy:  "default_post_privacy",
			DefaultImagePrivacy: "default_image_privacy",
			DiscoverableByEmail: "discoverable_by_email",
			DiscoverableByName:  "discoverable_by_name",
			DiscoverableByPhone: "discoverable_by_phone",
		},
	}
}

// Validate checks that every identifier the compiler will interpolate is set.
// An empty identifier would silently produce broken SQL, so construction fails
// loudly instead.
func (s Schema) Validate() error {
	named := map[string]string{
		"users table":                   s.UsersTable,
		"friends table":                 s.FriendsTable,
		"privacy table":                 s.PrivacyTable,
		"user.id":                       s.User.ID,
		"user.user_code":                s.User.UserCode,
		"user.email":                    s.User.Email,
		"user.name":                     s.User.Name,
		"user.phone":                    s.User.Phone,
		"user.location":                 s.User.Location,
		"user.birthday":                 s.User.Birthday,
		"user.contains_explicit":        s.User.ContainsExplicitContent,
		"user.is_admin":                 s.User.IsAdmin,
		"user.is_moderator":             s.User.IsModerator,
		"user.active":                   s.User.Active,
		"user.privacy_settings_id":      s.User.PrivacySettingsID,
		"friend.user_a":                 s.Friend.UserA,
		"friend.user_b":                 s.Friend.UserB,
		"privacy.id":                    s.Privacy.ID,
		"privacy.email_privacy":         s.Privacy.EmailPrivacy,
		"privacy.phone_privacy":         s.Privacy.PhonePrivacy,
		"privacy.location_privacy":      s.Privacy.LocationPrivacy,
		"privacy.birthday_privacy":      s.Privacy.BirthdayPrivacy,
		"privacy.default_post_privacy":  s.Privacy.DefaultPostPrivacy,
		"privacy.default_image_privacy": s.Privacy.DefaultImagePrivacy,
		"privacy.discoverable_by_email": s.Privacy.DiscoverableByEmail,
		"privacy.discoverable_by_name":  s.Privacy.DiscoverableByName,
		"privacy.discoverable_by_phone": s.Privacy.DiscoverableByPhone,
	}

	for name, v := range named {
		if v == "" {
			return fmt.Errorf("%w: %s identifier is empty", ErrInvalidSchema, name)
		}
	}
	return nil
}
