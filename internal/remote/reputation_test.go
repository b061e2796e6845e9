package remote_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robalyx/hivesync/internal/remote"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReputationClient_Lookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reputation/alice":
			_, _ = w.Write([]byte(`55.4`))
		case "/reputation/bob":
			_, _ = w.Write([]byte(`"61.7"`))
		case "/reputation/carol":
			_, _ = w.Write([]byte(`{"reputation":1}`))
		default:
			http.Error(w, "unknown account", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := remote.NewReputationClient(&config.Reputation{
		Endpoint:       server.URL + "/reputation/",
		RequestTimeout: 5000,
	}, zap.NewNop())

	score, err := client.Lookup(t.Context(), "alice")
	require.NoError(t, err)
	assert.InDelta(t, 55.4, score, 1e-9)

	score, err = client.Lookup(t.Context(), "bob")
	require.NoError(t, err)
	assert.InDelta(t, 61.7, score, 1e-9)

	_, err = client.Lookup(t.Context(), "carol")
	require.ErrorIs(t, err, remote.ErrMalformedPayload)

	_, err = client.Lookup(t.Context(), "dave")
	require.ErrorIs(t, err, remote.ErrNetwork)
}

func TestDecodeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body    string
		want    float64
		wantErr bool
	}{
		{body: `25`, want: 25},
		{body: `-3.5`, want: -3.5},
		{body: `" 70 "`, want: 70},
		{body: `"abc"`, wantErr: true},
		{body: `null`, wantErr: true},
		{body: ``, wantErr: true},
		{body: `"NaN"`, wantErr: true},
		{body: `"Inf"`, wantErr: true},
		{body: `"-Infinity"`, wantErr: true},
		{body: `"1e300"`, wantErr: true},
		{body: `1e300`, wantErr: true},
		{body: `-1e19`, wantErr: true},
		{body: `"9223372036854775807"`, wantErr: true},
		{body: `"1e15"`, want: 1e15},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			t.Parallel()

			got, err := remote.DecodeScore([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, remote.ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
