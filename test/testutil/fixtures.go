package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pthm/visage"
)

// UserSpec describes a fixture user. Zero values produce a plain active
// account with everything private and no discoverability opt-ins.
type UserSpec struct {
	Name     string
	Email    string
	Phone    string
	Location string
	Birthday string

	EmailPrivacy    visage.PrivacyFlag
	PhonePrivacy    visage.PrivacyFlag
	LocationPrivacy visage.PrivacyFlag
	BirthdayPrivacy visage.PrivacyFlag

	DiscoverableByEmail bool
	DiscoverableByName  bool
	DiscoverableByPhone bool

	ContainsExplicitContent bool
	IsAdmin                 bool
	IsModerator             bool
	Inactive                bool

	// NoPrivacyRow leaves privacy_settings_id NULL, exercising the
	// outer-join fail-closed path.
	NoPrivacyRow bool
}

// User is a created fixture account.
type User struct {
	ID       int64
	UserCode string
}

// Identity returns the viewer identity for this fixture account.
func (u User) Identity() visage.Identity {
	return visage.Identity{UserID: u.ID, UserCode: u.UserCode}
}

// Fixtures creates directory test data.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// NewUserCode generates a random 40-character user code.
func NewUserCode() string {
	raw := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return raw[:40]
}

// CreateUser inserts a user (and its privacy settings row unless suppressed)
// and returns its id and user code.
func (f *Fixtures) CreateUser(spec UserSpec) (User, error) {
	var privacyID sql.NullInt64

	if !spec.NoPrivacyRow {
		err := f.db.QueryRowContext(f.ctx, `
			INSERT INTO privacy_settings (
				email_privacy, phone_privacy, location_privacy, birthday_privacy,
				discoverable_by_email, discoverable_by_name, discoverable_by_phone
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			int(spec.EmailPrivacy), int(spec.PhonePrivacy),
			int(spec.LocationPrivacy), int(spec.BirthdayPrivacy),
			spec.DiscoverableByEmail, spec.DiscoverableByName, spec.DiscoverableByPhone,
		).Scan(&privacyID.Int64)
		if err != nil {
			return User{}, fmt.Errorf("insert privacy settings: %w", err)
		}
		privacyID.Valid = true
	}

	u := User{UserCode: NewUserCode()}
	name := spec.Name
	if name == "" {
		name = "user-" + u.UserCode[:8]
	}

	err := f.db.QueryRowContext(f.ctx, `
		INSERT INTO users (
			user_code, name, email, phone, location, birthday,
			contains_explicit_content, is_admin, is_moderator, active,
			privacy_settings_id
		) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
		RETURNING id`,
		u.UserCode, name, spec.Email, spec.Phone, spec.Location, spec.Birthday,
		spec.ContainsExplicitContent, spec.IsAdmin, spec.IsModerator, !spec.Inactive,
		privacyID,
	).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// Befriend links two users. One row covers both directions.
func (f *Fixtures) Befriend(a, b User) error {
	_, err := f.db.ExecContext(f.ctx,
		"INSERT INTO friends (user_a, user_b) VALUES ($1, $2)",
		a.ID, b.ID,
	)
	return err
}
