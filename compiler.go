package visage

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dimension identifies which user attribute a search matches on.
// Name matches by substring; the other three are exact matches.
type Dimension int

const (
	// DimensionUnset is the zero value and compiles to nothing.
	DimensionUnset Dimension = iota

	DimensionName
	DimensionEmail
	DimensionPhone
	DimensionUserCode
)

func (d Dimension) String() string {
	switch d {
	case DimensionName:
		return "name"
	case DimensionEmail:
		return "email"
	case DimensionPhone:
		return "phone"
	case DimensionUserCode:
		return "userCode"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// searchLimit caps search result sets. Profile fetches return at most one row.
const searchLimit = 100

// Query is a compiled, fully parameterized statement. The SQL text contains
// only schema identifiers fixed at compile time; every user-supplied value is
// in Args.
type Query struct {
	SQL  string
	Args []any
}

// Retryable reports whether a failed execution of this query should be
// retried. Directory queries are single-shot reads; retrying would not change
// the outcome, so this is always false. Transient-error policy belongs to the
// external data-access layer.
func (Query) Retryable() bool { return false }

// Compiler builds the row-level visibility queries for every search dimension
// and for profile fetches. All SQL text is assembled once at construction from
// the injected schema description; Compile calls only select a prepared
// variant and bind parameters.
//
// Two variants exist per dimension:
//
//   - standard: restricts rows to active accounts that are the requester's
//     own, mutually friended with the requester, or discoverable on the
//     dimension being searched. The requester's identity is embedded in the
//     predicate itself, so restricted accounts cannot be enumerated.
//   - privileged: drops the discoverability gate entirely but still requires
//     an active account.
//
// A Compiler is immutable after construction and safe for concurrent use.
type Compiler struct {
	schema Schema

	search  map[Dimension]searchVariants
	profile searchVariants
}

type searchVariants struct {
	standard   string
	privileged string
}

// NewCompiler validates the schema description and precompiles every query
// variant.
func NewCompiler(schema Schema) (*Compiler, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	c := &Compiler{
		schema: schema,
		search: make(map[Dimension]searchVariants),
	}

	for _, dim := range []Dimension{DimensionName, DimensionEmail, DimensionPhone, DimensionUserCode} {
		c.search[dim] = searchVariants{
			standard:   c.buildSearch(dim, false),
			privileged: c.buildSearch(dim, true),
		}
	}
	c.profile = searchVariants{
		standard:   c.buildProfile(false),
		privileged: c.buildProfile(true),
	}

	return c, nil
}

// Schema returns the schema description the compiler was constructed with.
func (c *Compiler) Schema() Schema { return c.schema }

// Search compiles the query for one dimension bound to the given viewer.
// $1 is the viewer's user id (feeding is_self, the friend join, and the
// self-escape in the gate); $2 is the search value. Name values are wrapped
// for substring matching before binding.
//
// Returns ErrUnsupportedDimension for an unset or unknown dimension. Upstream
// validation guarantees exactly one populated dimension, so hitting this is a
// programming error, not user input.
func (c *Compiler) Search(dim Dimension, value string, viewer Identity) (Query, error) {
	variants, ok := c.search[dim]
	if !ok {
		return Query{}, fmt.Errorf("%w: %s", ErrUnsupportedDimension, dim)
	}

	if dim == DimensionName {
		value = "%" + value + "%"
	}

	stmt := variants.standard
	if viewer.Privileged() {
		stmt = variants.privileged
	}

	return Query{SQL: stmt, Args: []any{viewer.UserID, value}}, nil
}

// Profile compiles the single-row profile-fetch query for a user code.
// Parameter layout matches Search: $1 viewer id, $2 target user code.
func (c *Compiler) Profile(userCode string, viewer Identity) Query {
	stmt := c.profile.standard
	if viewer.Privileged() {
		stmt = c.profile.privileged
	}
	return Query{SQL: stmt, Args: []any{viewer.UserID, userCode}}
}

// ident quotes a schema identifier for safe textual interpolation.
// Only identifiers from the injected Schema ever pass through here.
func ident(name string) string {
	return pq.QuoteIdentifier(name)
}

// searchFields is the column list shared by all search variants. u, p, and f
// alias the users, privacy settings, and friends tables. is_self and is_friend
// are computed in-query so they participate in both field selection and the
// discoverability gate.
func (c *Compiler) searchFields() string {
	u := c.schema.User
	p := c.schema.Privacy

	cols := []string{
		"u." + ident(u.UserCode) + " AS user_code",
		"u." + ident(u.Name) + " AS name",
		"u." + ident(u.Email) + " AS email",
		"p." + ident(p.EmailPrivacy) + " AS email_privacy",
		"u." + ident(u.Phone) + " AS phone",
		"p." + ident(p.PhonePrivacy) + " AS phone_privacy",
		"u." + ident(u.Location) + " AS location",
		"p." + ident(p.LocationPrivacy) + " AS location_privacy",
		"u." + ident(u.Birthday) + " AS birthday",
		"p." + ident(p.BirthdayPrivacy) + " AS birthday_privacy",
		"u." + ident(u.ContainsExplicitContent) + " AS contains_explicit_content",
		"u." + ident(u.IsAdmin) + " AS is_admin",
		"u." + ident(u.IsModerator) + " AS is_moderator",
		"(u." + ident(u.ID) + " = $1) AS is_self",
		"(" + c.friendLinked() + ") AS is_friend",
	}
	return strings.Join(cols, ",\n\t")
}

// profileFields extends searchFields with the privacy-settings block columns.
func (c *Compiler) profileFields() string {
	p := c.schema.Privacy

	cols := []string{
		c.searchFields(),
		"p." + ident(p.DefaultPostPrivacy) + " AS default_post_privacy",
		"p." + ident(p.DefaultImagePrivacy) + " AS default_image_privacy",
		"p." + ident(p.DiscoverableByEmail) + " AS discoverable_by_email",
		"p." + ident(p.DiscoverableByName) + " AS discoverable_by_name",
		"p." + ident(p.DiscoverableByPhone) + " AS discoverable_by_phone",
	}
	return strings.Join(cols, ",\n\t")
}

// fromClause joins privacy settings and the friend-link table. The friend
// join matches a link in either direction; both sides NULL means no link.
func (c *Compiler) fromClause() string {
	u := c.schema.User
	f := c.schema.Friend
	p := c.schema.Privacy

	return "FROM " + ident(c.schema.UsersTable) + " u\n" +
		"LEFT OUTER JOIN " + ident(c.schema.PrivacyTable) + " p" +
		" ON p." + ident(p.ID) + " = u." + ident(u.PrivacySettingsID) + "\n" +
		"LEFT OUTER JOIN " + ident(c.schema.FriendsTable) + " f" +
		" ON (f." + ident(f.UserA) + " = u." + ident(u.ID) + " AND f." + ident(f.UserB) + " = $1)" +
		" OR (f." + ident(f.UserB) + " = u." + ident(u.ID) + " AND f." + ident(f.UserA) + " = $1)"
}

// friendLinked is the bidirectional friend-link test used in both the field
// list and the gate.
func (c *Compiler) friendLinked() string {
	f := c.schema.Friend
	return "f." + ident(f.UserA) + " IS NOT NULL AND f." + ident(f.UserB) + " IS NOT NULL"
}

// matchPredicate returns the dimension's WHERE condition against $2.
func (c *Compiler) matchPredicate(dim Dimension) string {
	u := c.schema.User
	switch dim {
	case DimensionName:
		return "u." + ident(u.Name) + " LIKE $2"
	case DimensionEmail:
		return "u." + ident(u.Email) + " = $2"
	case DimensionPhone:
		return "u." + ident(u.Phone) + " = $2"
	case DimensionUserCode:
		return "u." + ident(u.UserCode) + " = $2"
	default:
		// NewCompiler only builds known dimensions.
		panic(fmt.Sprintf("visage: no predicate for %s", dim))
	}
}

// discoverabilityGate is the disjunctive row-inclusion gate applied to
// non-privileged searches: self, friend, or opted into discovery on this
// dimension. A user code is an opaque token rather than public directory data,
// so code lookups (and profile fetches) accept any of the three opt-ins
// instead of a dedicated flag.
func (c *Compiler) discoverabilityGate(dim Dimension) string {
	u := c.schema.User
	p := c.schema.Privacy

	var discoverable string
	switch dim {
	case DimensionName:
		discoverable = "p." + ident(p.DiscoverableByName)
	case DimensionEmail:
		discoverable = "p." + ident(p.DiscoverableByEmail)
	case DimensionPhone:
		discoverable = "p." + ident(p.DiscoverableByPhone)
	case DimensionUserCode:
		discoverable = "(p." + ident(p.DiscoverableByEmail) +
			" OR p." + ident(p.DiscoverableByName) +
			" OR p." + ident(p.DiscoverableByPhone) + ")"
	default:
		panic(fmt.Sprintf("visage: no gate for %s", dim))
	}

	return "(\n\t\tu." + ident(u.ID) + " = $1" +
		"\n\t\tOR " + discoverable +
		"\n\t\tOR (" + c.friendLinked() + ")\n\t)"
}

func (c *Compiler) buildSearch(dim Dimension, privileged bool) string {
	u := c.schema.User

	where := []string{
		c.matchPredicate(dim),
		"u." + ident(u.Active),
	}
	if !privileged {
		where = append(where, c.discoverabilityGate(dim))
	}

	return "SELECT\n\t" + c.searchFields() + "\n" +
		c.fromClause() + "\n" +
		"WHERE " + strings.Join(where, "\n\tAND ") + "\n" +
		fmt.Sprintf("LIMIT %d", searchLimit)
}

func (c *Compiler) buildProfile(privileged bool) string {
	u := c.schema.User

	where := []string{
		c.matchPredicate(DimensionUserCode),
		"u." + ident(u.Active),
	}
	if !privileged {
		where = append(where, c.discoverabilityGate(DimensionUserCode))
	}

	return "SELECT\n\t" + c.profileFields() + "\n" +
		c.fromClause() + "\n" +
		"WHERE " + strings.Join(where, "\n\tAND ") + "\n" +
		"LIMIT 1"
}
