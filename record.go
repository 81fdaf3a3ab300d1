package visage

// SearchRecord is one raw row produced by a compiled search query: the
// target's stored fields augmented with the viewer-dependent booleans the
// query computed in SQL (is_self, is_friend) and the raw privacy ordinals for
// each gated field.
//
// Records are produced fresh per query, never cached, and immutable once read.
type SearchRecord struct {
	UserCode string
	Name     string

	Email    string
	Phone    string
	Location string
	Birthday string

	EmailPrivacy    PrivacyFlag
	PhonePrivacy    PrivacyFlag
	LocationPrivacy PrivacyFlag
	BirthdayPrivacy PrivacyFlag

	ContainsExplicitContent bool
	IsAdmin                 bool
	IsModerator             bool

	// Computed in-query against the viewer identity.
	IsSelf   bool
	IsFriend bool
}

// ProfileRecord is the superset row returned by the profile-fetch query. It
// carries the target's full privacy settings, which the resolver attaches to
// the projection only for Self or Privileged viewers.
type ProfileRecord struct {
	SearchRecord

	DefaultPostPrivacy  PrivacyFlag
	DefaultImagePrivacy PrivacyFlag

	DiscoverableByEmail bool
	DiscoverableByName  bool
	DiscoverableByPhone bool
}

// Discoverability holds the per-dimension opt-in flags that let strangers find
// an otherwise-private account via a specific search dimension.
type Discoverability struct {
	Email bool `json:"email"`
	Name  bool `json:"name"`
	Phone bool `json:"phone"`
}

// PrivacySettings is the target's own full privacy configuration, disclosed
// only to Self or Privileged viewers on the profile-fetch path.
type PrivacySettings struct {
	Email           PrivacyFlag     `json:"email"`
	Phone           PrivacyFlag     `json:"phone"`
	Birthday        PrivacyFlag     `json:"birthday"`
	Location        PrivacyFlag     `json:"location"`
	Post            PrivacyFlag     `json:"post"`
	Image           PrivacyFlag     `json:"image"`
	Discoverability Discoverability `json:"discoverability"`
}

// Projection is the redacted, viewer-specific view of a user record.
//
// UserCode and Name are always present. Gated fields appear only when the
// stored privacy level meets the viewer threshold. Presentation flags are
// serialized as true-or-absent: omission is the negative signal, false is
// never emitted. The privacy block appears only on profile fetches for Self
// or Privileged viewers; search results are always abbreviated.
type Projection struct {
	UserCode string `json:"userCode"`
	Name     string `json:"name"`

	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Birthday string `json:"birthday,omitempty"`

	ContainsExplicitContent bool `json:"containsExplicitContent,omitempty"`
	IsAdmin                 bool `json:"isAdmin,omitempty"`
	IsModerator             bool `json:"isModerator,omitempty"`
	IsFriend                bool `json:"isFriend,omitempty"`
	IsSelf                  bool `json:"isSelf,omitempty"`

	Privacy *PrivacySettings `json:"privacy,omitempty"`
}
