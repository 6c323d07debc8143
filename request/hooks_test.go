package request

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenAuth(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		existing string
		want     string
	}{
		{"personal access token", "ghp_abc", "", "token ghp_abc"},
		{"json web token", "aaa.bbb.ccc", "", "bearer aaa.bbb.ccc"},
		{"existing header wins", "ghp_abc", "Basic xyz", "Basic xyz"},
		{"empty token", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Descriptor{Header: http.Header{}}
			if tt.existing != "" {
				d.Header.Set("Authorization", tt.existing)
			}

			err := TokenAuth(tt.token)(d)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, d.Header.Get("Authorization"))
		})
	}
}

func TestChainBeforeRequest(t *testing.T) {
	var order []string
	hook := func(name string, err error) BeforeRequestHook {
		return func(d *Descriptor) error {
			order = append(order, name)
			return err
		}
	}

	chain := ChainBeforeRequest(hook("a", nil), nil, hook("b", errors.New("stop")), hook("c", nil))
	err := chain(&Descriptor{Header: http.Header{}})

	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"a", "b"}, order)
}
