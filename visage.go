// Package visage answers "which attributes of user X may user Y see?" for a
// social-network user directory backed by PostgreSQL.
//
// # Two-layer enforcement
//
// Visibility is enforced in two independent layers that must always agree:
//
//   - Row-level: the query compiler embeds the requester's identity into the
//     SQL predicate itself, so that non-privileged requesters can only match
//     rows for accounts that are their own, mutually friended, or explicitly
//     discoverable on the search dimension. Restricted accounts are never
//     enumerable; their absence is indistinguishable from non-existence.
//   - Field-level: the resolver redacts each returned row into a Projection,
//     disclosing a gated field only when its stored PrivacyFlag meets the
//     threshold derived from the requester's RelationshipClass.
//
// Both layers share one PrivacyFlag scale and one RelationshipClass
// computation, so a field the query treated as visible is never redacted
// inconsistently, and vice versa.
//
// # Basic Usage
//
//	dir, err := visage.NewDirectory(db, visage.DefaultSchema())
//	if err != nil { ... }
//
//	viewer := visage.Identity{UserID: 42, UserCode: code}
//	results, err := dir.FindUsers(ctx, visage.SearchParams{Name: "ada"}, viewer)
//
//	profile, err := dir.GetProfile(ctx, "self", viewer)
//
// # Transaction Support
//
// Directory works with *sql.DB, *sql.Tx, or *sql.Conn via the Querier
// interface, so directory reads can observe uncommitted changes inside a
// transaction when needed.
//
// # Statelessness
//
// Directory, Compiler, and the resolver functions hold no mutable state beyond
// the database handle. Concurrent requests are fully independent; each
// invocation issues at most one read query and performs no writes.
package visage

import (
	"context"
	"database/sql"
)

// Identity is the fully resolved requester identity, supplied by an external
// session-validation step. The library never talks to the auth service itself.
type Identity struct {
	UserID      int64
	UserCode    string
	IsAdmin     bool
	IsModerator bool
}

// Privileged reports whether the identity bypasses discoverability gating.
// Admins and moderators see every active account and every gated field.
func (id Identity) Privileged() bool {
	return id.IsAdmin || id.IsModerator
}

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
//
// The minimal interface allows Directory to work in transaction contexts
// without requiring a full database connection.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext for migrations.
// Only required by the migrate path, not for directory reads.
// Separating this interface keeps the Directory dependency minimal.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
