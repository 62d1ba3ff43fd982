package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEIN(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12-3456789", true},
		{"123456789", false},
		{"AB-1234567", false},
		{"12-345678", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEIN(tt.in))
		})
	}
}

func TestNormalizeEIN(t *testing.T) {
	assert.Equal(t, "12-3456789", NormalizeEIN("123456789"))
	assert.Equal(t, "12-3456789", NormalizeEIN(" 12-3456789 "))
	assert.Equal(t, "AB-1234567", NormalizeEIN("AB-1234567"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("hank@globex.com"))
	assert.False(t, IsValidEmail("hank@globex"))
	assert.False(t, IsValidEmail("Hank <hank@globex.com>"))
	assert.False(t, IsValidEmail("hank globex.com"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("(555) 123-4567"))
	assert.False(t, IsValidPhone("555-CALL-NOW"))
	assert.False(t, IsValidPhone("+1 555 1234"))
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("ein", "invalid")
	fe.Add("ein", "second message is ignored")
	fe.Add("businessName", "required")

	assert.True(t, fe.HasErrors())
	assert.Equal(t, "invalid", fe["ein"])
	assert.Equal(t, []string{"businessName", "ein"}, fe.Fields())

	fe.Clear("ein")
	assert.Equal(t, []string{"businessName"}, fe.Fields())

	nested := FieldErrors{}
	nested.Merge("customers[0]", FieldErrors{"email": "invalid"})
	assert.Equal(t, "invalid", nested["customers[0].email"])
}

const customersSchema = `{
  "type": "object",
  "required": ["customers"],
  "properties": {
    "customers": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {"email": {"type": "string"}}
      }
    }
  }
}`

func TestSchema_Validate(t *testing.T) {
	s, err := CompileSchema("customers", customersSchema)
	require.NoError(t, err)
	assert.Equal(t, "customers", s.Name())

	assert.False(t, s.Validate([]byte(`{"customers":[{"email":"a@b.co"}]}`)).HasErrors())

	fe := s.Validate([]byte(`{"customers":[{"email":"a@b.co"},{"email":42}]}`))
	assert.Contains(t, fe, "customers[1].email")

	fe = s.Validate([]byte(`{}`))
	assert.Contains(t, fe, "customers")

	fe = s.Validate([]byte(`{"customers":`))
	assert.Equal(t, "malformed JSON", fe["body"])
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema("broken", `{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompileSchema("broken", `{"type": 12}`) })
}
