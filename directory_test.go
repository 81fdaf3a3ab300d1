package visage_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pthm/visage"
)

// fakePGError mimics a driver error carrying a SQLSTATE code.
type fakePGError struct{ code string }

func (e *fakePGError) Error() string    { return "pq: error (SQLSTATE " + e.code + ")" }
func (e *fakePGError) SQLState() string { return e.code }

var searchColumns = []string{
	"user_code", "name",
	"email", "email_privacy",
	"phone", "phone_privacy",
	"location", "location_privacy",
	"birthday", "birthday_privacy",
	"contains_explicit_content", "is_admin", "is_moderator",
	"is_self", "is_friend",
}

var profileColumns = append(append([]string{}, searchColumns...),
	"default_post_privacy", "default_image_privacy",
	"discoverable_by_email", "discoverable_by_name", "discoverable_by_phone",
)

func newMockDirectory(t *testing.T) (*visage.Directory, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir, err := visage.NewDirectory(db, visage.DefaultSchema())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	return dir, mock
}

func TestFindUsers(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}

	query, err := dir.Compiler().Search(visage.DimensionEmail, "ada@example.com", viewer)
	if err != nil {
		t.Fatal(err)
	}

	rows := sqlmock.NewRows(searchColumns).AddRow(
		strings.Repeat("a", 40), "Ada Lovelace",
		"ada@example.com", int64(visage.PrivacyFriendsOnly),
		"+15551234567", int64(visage.PrivacyPublic),
		"London", int64(visage.PrivacyPrivate),
		"1815-12-10", int64(visage.PrivacyFriendsOnly),
		false, false, false,
		false, false,
	)
	mock.ExpectQuery(query.SQL).WithArgs(int64(7), "ada@example.com").WillReturnRows(rows)

	got, err := dir.FindUsers(context.Background(), visage.SearchParams{Email: "ada@example.com"}, viewer)
	if err != nil {
		t.Fatalf("FindUsers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	// Stranger view: public phone visible, everything else redacted.
	p := got[0]
	if p.Name != "Ada Lovelace" || p.Phone != "+15551234567" {
		t.Errorf("projection = %+v", p)
	}
	if p.Email != "" || p.Location != "" || p.Birthday != "" {
		t.Errorf("redaction not applied: %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindUsers_ValidatesBeforeQuerying(t *testing.T) {
	dir, mock := newMockDirectory(t)

	// No query expectation registered: validation must stop the operation.
	_, err := dir.FindUsers(context.Background(), visage.SearchParams{}, visage.Identity{UserID: 1})
	if _, ok := visage.AsValidationFault(err); !ok {
		t.Fatalf("error = %v, want ValidationFault", err)
	}

	_, err = dir.FindUsers(context.Background(),
		visage.SearchParams{Name: "ada", Phone: "+15551234567"}, visage.Identity{UserID: 1})
	if _, ok := visage.AsValidationFault(err); !ok {
		t.Fatalf("error = %v, want ValidationFault", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindUsers_EmptyResult(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}

	query, err := dir.Compiler().Search(visage.DimensionName, "nobody", viewer)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(query.SQL).
		WithArgs(int64(7), "%nobody%").
		WillReturnRows(sqlmock.NewRows(searchColumns))

	got, err := dir.FindUsers(context.Background(), visage.SearchParams{Name: "nobody"}, viewer)
	if err != nil {
		t.Fatalf("FindUsers: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d projections, want none", len(got))
	}
}

func TestFindUsers_WrapsUnexpectedErrors(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}

	query, err := dir.Compiler().Search(visage.DimensionName, "ada", viewer)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(query.SQL).WillReturnError(errors.New("connection reset"))

	_, err = dir.FindUsers(context.Background(), visage.SearchParams{Name: "ada"}, viewer)
	var sf *visage.ServerFault
	if !errors.As(err, &sf) {
		t.Fatalf("error = %v, want ServerFault", err)
	}
	if !strings.Contains(sf.Error(), "connection reset") {
		t.Errorf("cause lost: %v", sf)
	}
}

func TestFindUsers_MissingTable(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}

	query, err := dir.Compiler().Search(visage.DimensionName, "ada", viewer)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(query.SQL).WillReturnError(&fakePGError{code: "42P01"})

	_, err = dir.FindUsers(context.Background(), visage.SearchParams{Name: "ada"}, viewer)
	if !visage.IsMissingTableErr(err) {
		t.Errorf("error = %v, want ErrMissingTable", err)
	}
	var sf *visage.ServerFault
	if !errors.As(err, &sf) {
		t.Errorf("missing-table errors surface as server faults, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}
	code := strings.Repeat("b", 40)

	query := dir.Compiler().Profile(code, viewer)
	rows := sqlmock.NewRows(profileColumns).AddRow(
		code, "Ada Lovelace",
		"ada@example.com", int64(visage.PrivacyPublic),
		"+15551234567", int64(visage.PrivacyPrivate),
		"London", int64(visage.PrivacyPublic),
		"1815-12-10", int64(visage.PrivacyPrivate),
		false, false, false,
		false, true, // friend
		int64(visage.PrivacyFriendsOnly), int64(visage.PrivacyPublic),
		true, false, true,
	)
	mock.ExpectQuery(query.SQL).WithArgs(int64(7), code).WillReturnRows(rows)

	got, err := dir.GetProfile(context.Background(), code, viewer)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Email != "ada@example.com" || got.Phone != "" {
		t.Errorf("friend redaction wrong: %+v", got)
	}
	if got.Privacy != nil {
		t.Error("friend must not receive the privacy block")
	}
}

func TestGetProfile_SelfToken(t *testing.T) {
	dir, mock := newMockDirectory(t)
	code := strings.Repeat("c", 40)
	viewer := visage.Identity{UserID: 7, UserCode: code}

	// The reserved token compiles against the viewer's own code.
	query := dir.Compiler().Profile(code, viewer)
	rows := sqlmock.NewRows(profileColumns).AddRow(
		code, "Ada Lovelace",
		"ada@example.com", int64(visage.PrivacyPrivate),
		"+15551234567", int64(visage.PrivacyPrivate),
		"London", int64(visage.PrivacyPrivate),
		"1815-12-10", int64(visage.PrivacyPrivate),
		false, false, false,
		true, false, // self
		int64(visage.PrivacyPrivate), int64(visage.PrivacyPrivate),
		false, false, false,
	)
	mock.ExpectQuery(query.SQL).WithArgs(int64(7), code).WillReturnRows(rows)

	got, err := dir.GetProfile(context.Background(), visage.SelfUserCode, viewer)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Email == "" || got.Privacy == nil {
		t.Errorf("self view should carry all fields and the privacy block: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}
	code := strings.Repeat("d", 40)

	query := dir.Compiler().Profile(code, viewer)
	mock.ExpectQuery(query.SQL).
		WithArgs(int64(7), code).
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err := dir.GetProfile(context.Background(), code, viewer)
	if !visage.IsNotFoundErr(err) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetProfile_NullPrivacyFailsClosed(t *testing.T) {
	dir, mock := newMockDirectory(t)
	viewer := visage.Identity{UserID: 7}
	code := strings.Repeat("e", 40)

	// An account with no privacy settings row: every joined column is NULL.
	query := dir.Compiler().Profile(code, viewer)
	rows := sqlmock.NewRows(profileColumns).AddRow(
		code, "Ghost",
		"ghost@example.com", nil,
		"+15550000000", nil,
		nil, nil,
		nil, nil,
		false, false, false,
		false, true, // friend
		nil, nil,
		nil, nil, nil,
	)
	mock.ExpectQuery(query.SQL).WithArgs(int64(7), code).WillReturnRows(rows)

	got, err := dir.GetProfile(context.Background(), code, viewer)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	// NULL ordinals collapse to Private: nothing gated is disclosed, even to
	// a friend.
	if got.Email != "" || got.Phone != "" {
		t.Errorf("NULL privacy must fail closed: %+v", got)
	}
	if got.Name != "Ghost" {
		t.Errorf("ungated fields should survive: %+v", got)
	}
}
