package visage

// Resolve redacts a search record into the viewer-specific projection.
//
// Redaction is total and deterministic: for a given record and viewer the
// result is always identical, and there is no partial-failure mode. A gated
// field is included iff its stored openness meets or exceeds the threshold for
// the viewer's relationship class (higher ordinal means more open).
func Resolve(rec SearchRecord, viewer Identity) Projection {
	class := Classify(viewer, rec.IsSelf, rec.IsFriend)
	needed := class.Threshold()

	p := Projection{
		UserCode: rec.UserCode,
		Name:     rec.Name,
	}

	if rec.EmailPrivacy >= needed {
		p.Email = rec.Email
	}
	if rec.PhonePrivacy >= needed {
		p.Phone = rec.Phone
	}
	if rec.BirthdayPrivacy >= needed {
		p.Birthday = rec.Birthday
	}
	if rec.LocationPrivacy >= needed {
		p.Location = rec.Location
	}

	p.ContainsExplicitContent = rec.ContainsExplicitContent
	p.IsAdmin = rec.IsAdmin
	p.IsModerator = rec.IsModerator
	p.IsSelf = rec.IsSelf
	p.IsFriend = rec.IsFriend

	return p
}

// ResolveProfile redacts a profile record. Field gating is identical to
// Resolve; additionally the target's full privacy settings are attached when
// the viewer is Self or Privileged. Search results never carry the privacy
// block, even for self, so this is the only place it is populated.
func ResolveProfile(rec ProfileRecord, viewer Identity) Projection {
	p := Resolve(rec.SearchRecord, viewer)

	class := Classify(viewer, rec.IsSelf, rec.IsFriend)
	if class == ClassSelf || class == ClassPrivileged {
		p.Privacy = &PrivacySettings{
			Email:    rec.EmailPrivacy,
			Phone:    rec.PhonePrivacy,
			Birthday: rec.BirthdayPrivacy,
			Location: rec.LocationPrivacy,
			Post:     rec.DefaultPostPrivacy,
			Image:    rec.DefaultImagePrivacy,
			Discoverability: Discoverability{
				Email: rec.DiscoverableByEmail,
				Name:  rec.DiscoverableByName,
				Phone: rec.DiscoverableByPhone,
			},
		}
	}

	return p
}
