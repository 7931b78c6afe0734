package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Username string   `json:"username" validate:"notblank,min=3,max=20" msg:"notblank:Username cannot be blank|min:Username must be between 3 and 20 characters|max:Username must be between 3 and 20 characters"`
	Email    string   `json:"email" validate:"required,email" msg:"required:Email cannot be blank|email:Email should be valid"`
	Password string   `json:"password" validate:"min=6"`
	Roles    []string `json:"roles" validate:"omitempty,min=1"`
	Nick     *string  `json:"nick" validate:"omitempty,min=3"`
	Age      int      `json:"age" validate:"omitempty,gt=0"`
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Struct(signup{Username: "alice", Email: "a@example.com", Password: "secret"}))
}

func TestStruct_CustomAndDefaultMessages(t *testing.T) {
	t.Parallel()
	short := "ab"
	tests := []struct {
		name  string
		input signup
		want  map[string]string
	}{
		{
			name:  "blank username uses custom message",
			input: signup{Username: "   ", Email: "a@example.com", Password: "secret"},
			want:  map[string]string{"username": "Username cannot be blank"},
		},
		{
			name:  "short username",
			input: signup{Username: "al", Email: "a@example.com", Password: "secret"},
			want:  map[string]string{"username": "Username must be between 3 and 20 characters"},
		},
		{
			name:  "bad email",
			input: signup{Username: "alice", Email: "nope", Password: "secret"},
			want:  map[string]string{"email": "Email should be valid"},
		},
		{
			name:  "default messages use json names",
			input: signup{Username: "alice", Email: "a@example.com", Password: "123", Nick: &short, Age: -1},
			want: map[string]string{
				"password": "password must be at least 6 characters long",
				"nick":     "nick must be at least 3 characters long",
				"age":      "age must be greater than 0",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Struct(&tt.input))
		})
	}
}

func TestToDetails_JSONErrors(t *testing.T) {
	t.Parallel()
	var v map[string]any
	err := json.Unmarshal([]byte("{bad"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
