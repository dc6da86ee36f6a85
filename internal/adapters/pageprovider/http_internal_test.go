package pageprovider

import (
	"errors"
	"testing"

	"github.com/Amund211/pagecache/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFromResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		response   []byte
		statusCode int
		expected   string
		err        error
		message    string
	}{
		{
			name:       "valid response",
			response:   []byte(`{"data":"This is the data for page 3"}`),
			statusCode: 200,
			expected:   "This is the data for page 3",
		},
		{
			name:       "other 2xx",
			response:   []byte(`{"data":"created"}`),
			statusCode: 201,
			expected:   "created",
		},
		{
			name:       "missing data field",
			response:   []byte(`{}`),
			statusCode: 200,
			expected:   "",
		},
		{
			name:       "not found",
			response:   []byte(`Not Found`),
			statusCode: 404,
			err:        domain.ErrPageNotFound,
			message:    "Not Found",
		},
		{
			name:       "429 no body",
			response:   []byte(``),
			statusCode: 429,
			err:        domain.ErrTemporarilyUnavailable,
			message:    "Too Many Requests",
		},
		{
			name:       "503 no body",
			response:   []byte(``),
			statusCode: 503,
			err:        domain.ErrTemporarilyUnavailable,
			message:    "Service Unavailable",
		},
		{
			name:       "500 with json body",
			response:   []byte(`{"data":"ignored"}`),
			statusCode: 500,
			err:        assert.AnError,
			message:    "Internal Server Error",
		},
		{
			name:       "304 is not a success",
			response:   []byte(``),
			statusCode: 304,
			err:        assert.AnError,
			message:    "Not Modified",
		},
		{
			name:       "invalid JSON",
			response:   []byte(`{"data":"unterminated`),
			statusCode: 200,
			err:        assert.AnError,
		},
		{
			name:       "empty response",
			response:   []byte(``),
			statusCode: 200,
			err:        assert.AnError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := pageFromResponse(tc.statusCode, tc.response)
			if tc.err != nil {
				if errors.Is(tc.err, assert.AnError) {
					require.Error(t, err)
				} else {
					require.ErrorIs(t, err, tc.err)
				}
				if tc.message != "" {
					require.Equal(t, tc.message, err.Error())
				}
				return
			}
			require.NoError(t, err)

			require.Equal(t, tc.expected, data)
		})
	}
}
