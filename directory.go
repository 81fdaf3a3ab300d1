package visage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
)

// SelfUserCode is the reserved profile-fetch token meaning "the requester's
// own account". It is substituted with the requester's stable user code before
// compilation, so the rest of the pipeline treats it as any other lookup and
// the row classifies as Self.
const SelfUserCode = "self"

// Directory performs privacy-aware user lookups against PostgreSQL.
//
// Directories are lightweight and safe to create per-request. They hold no
// state beyond the database handle and the precompiled query set. The handle
// can be *sql.DB, *sql.Tx, or *sql.Conn.
//
// Each operation issues exactly one read query, performs no writes, and is
// never retried: these are single-shot reads whose failure is surfaced to the
// caller. Cancelling the context simply abandons the pending query.
type Directory struct {
	q        Querier
	compiler *Compiler
}

// NewDirectory creates a directory over the given handle and schema
// description. All query variants are compiled here; schema problems fail
// construction rather than the first request.
func NewDirectory(q Querier, schema Schema) (*Directory, error) {
	compiler, err := NewCompiler(schema)
	if err != nil {
		return nil, err
	}
	return &Directory{q: q, compiler: compiler}, nil
}

// Compiler returns the directory's query compiler.
func (d *Directory) Compiler() *Compiler { return d.compiler }

// FindUsers searches for users matching the single populated dimension of
// params, as seen by viewer. Validation runs before any query executes; zero
// or multiple populated dimensions return a *ValidationFault.
//
// Row membership is already gated in SQL, so every returned projection is for
// an account the viewer was entitled to see at all; field-level redaction is
// applied on top per record.
func (d *Directory) FindUsers(ctx context.Context, params SearchParams, viewer Identity) ([]Projection, error) {
	dim, value, err := params.Validate()
	if err != nil {
		return nil, err
	}

	query, err := d.compiler.Search(dim, value, viewer)
	if err != nil {
		return nil, d.fault("search users", err)
	}

	rows, err := d.q.QueryContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, d.fault("search users", d.mapError(err))
	}
	defer rows.Close()

	var results []Projection
	for rows.Next() {
		var rec SearchRecord
		if err := scanSearchRecord(rows, &rec); err != nil {
			return nil, d.fault("search users", err)
		}
		results = append(results, Resolve(rec, viewer))
	}
	if err := rows.Err(); err != nil {
		return nil, d.fault("search users", d.mapError(err))
	}

	return results, nil
}

// GetProfile fetches a single user profile by user code, as seen by viewer.
// The reserved SelfUserCode token resolves to the viewer's own account.
//
// Returns ErrNotFound when no visible row matches — whether the code does not
// exist or the discoverability gate excluded the row is indistinguishable by
// design.
func (d *Directory) GetProfile(ctx context.Context, userCode string, viewer Identity) (Projection, error) {
	if userCode == SelfUserCode {
		userCode = viewer.UserCode
	}

	query := d.compiler.Profile(userCode, viewer)

	var rec ProfileRecord
	err := scanProfileRecord(d.q.QueryRowContext(ctx, query.SQL, query.Args...), &rec)
	if errors.Is(err, sql.ErrNoRows) {
		return Projection{}, ErrNotFound
	}
	if err != nil {
		return Projection{}, d.fault("get profile", d.mapError(err))
	}

	return ResolveProfile(rec, viewer), nil
}

// fault applies the propagation policy at the operation boundary: known fault
// kinds pass through unchanged, everything else is logged once here and
// re-wrapped so internals never reach the caller.
func (d *Directory) fault(op string, err error) error {
	if KnownFault(err) {
		return err
	}
	log.Printf("[visage] WARNING: unexpected error during %s: %v", op, err)
	return &ServerFault{Err: fmt.Errorf("%s: %w", op, err)}
}

// mapError maps PostgreSQL errors to sentinel errors.
func (d *Directory) mapError(err error) error {
	if sqlState(err) == pgUndefinedTable {
		return fmt.Errorf("%w: %v", ErrMissingTable, err)
	}
	return err
}

// scanner is the subset of *sql.Row / *sql.Rows used by the record scanners.
type scanner interface {
	Scan(dest ...any) error
}

// scanSearchRecord reads one row in searchFields column order.
// Profile-less accounts come back with NULL privacy ordinals from the outer
// join; those collapse to Private, the least-open level.
func scanSearchRecord(s scanner, rec *SearchRecord) error {
	var (
		email, phone, location, birthday              sql.NullString
		emailPriv, phonePriv, locationPriv, birthPriv sql.NullInt64
	)

	if err := s.Scan(
		&rec.UserCode,
		&rec.Name,
		&email,
		&emailPriv,
		&phone,
		&phonePriv,
		&location,
		&locationPriv,
		&birthday,
		&birthPriv,
		&rec.ContainsExplicitContent,
		&rec.IsAdmin,
		&rec.IsModerator,
		&rec.IsSelf,
		&rec.IsFriend,
	); err != nil {
		return err
	}

	rec.Email = email.String
	rec.Phone = phone.String
	rec.Location = location.String
	rec.Birthday = birthday.String
	rec.EmailPrivacy = nullFlag(emailPriv)
	rec.PhonePrivacy = nullFlag(phonePriv)
	rec.LocationPrivacy = nullFlag(locationPriv)
	rec.BirthdayPrivacy = nullFlag(birthPriv)

	return nil
}

// scanProfileRecord reads one row in profileFields column order.
func scanProfileRecord(s scanner, rec *ProfileRecord) error {
	var (
		email, phone, location, birthday              sql.NullString
		emailPriv, phonePriv, locationPriv, birthPriv sql.NullInt64
		postPriv, imagePriv                           sql.NullInt64
		discEmail, discName, discPhone                sql.NullBool
	)

	if err := s.Scan(
		&rec.UserCode,
		&rec.Name,
		&email,
		&emailPriv,
		&phone,
		&phonePriv,
		&location,
		&locationPriv,
		&birthday,
		&birthPriv,
		&rec.ContainsExplicitContent,
		&rec.IsAdmin,
		&rec.IsModerator,
		&rec.IsSelf,
		&rec.IsFriend,
		&postPriv,
		&imagePriv,
		&discEmail,
		&discName,
		&discPhone,
	); err != nil {
		return err
	}

	rec.Email = email.String
	rec.Phone = phone.String
	rec.Location = location.String
	rec.Birthday = birthday.String
	rec.EmailPrivacy = nullFlag(emailPriv)
	rec.PhonePrivacy = nullFlag(phonePriv)
	rec.LocationPrivacy = nullFlag(locationPriv)
	rec.BirthdayPrivacy = nullFlag(birthPriv)
	rec.DefaultPostPrivacy = nullFlag(postPriv)
	rec.DefaultImagePrivacy = nullFlag(imagePriv)
	rec.DiscoverableByEmail = discEmail.Bool
	rec.DiscoverableByName = discName.Bool
	rec.DiscoverableByPhone = discPhone.Bool

	return nil
}

// nullFlag converts a nullable stored ordinal to a PrivacyFlag. NULL and
// out-of-range values collapse to Private so corrupt rows fail closed.
func nullFlag(v sql.NullInt64) PrivacyFlag {
	if !v.Valid {
		return PrivacyPrivate
	}
	f := PrivacyFlag(v.Int64)
	if !f.Valid() {
		return PrivacyPrivate
	}
	return f
}
