package visage_test

import (
	"strings"
	"testing"

	"github.com/pthm/visage"
)

func TestDefaultSchemaValidates(t *testing.T) {
	if err := visage.DefaultSchema().Validate(); err != nil {
		t.Errorf("default schema should validate: %v", err)
	}
}

func TestSchemaValidate_EmptyIdentifiers(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		s := visage.DefaultSchema()
		s.FriendsTable = ""
		err := s.Validate()
		if !visage.IsInvalidSchemaErr(err) {
			t.Errorf("error = %v, want ErrInvalidSchema", err)
		}
		if !strings.Contains(err.Error(), "friends table") {
			t.Errorf("error should name the missing identifier: %v", err)
		}
	})

	t.Run("empty column", func(t *testing.T) {
		s := visage.DefaultSchema()
		s.Privacy.DiscoverableByPhone = ""
		if !visage.IsInvalidSchemaErr(s.Validate()) {
			t.Error("empty column identifier should fail validation")
		}
	})

	t.Run("zero value", func(t *testing.T) {
		if !visage.IsInvalidSchemaErr(visage.Schema{}.Validate()) {
			t.Error("zero schema should fail validation")
		}
	})
}
