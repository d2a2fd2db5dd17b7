package callback

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForCodeReceivesBrowserRedirect(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	resp, err := http.Get(srv.CallbackURL() + "/?code=tok-abc")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "return to the terminal")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := srv.WaitForCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", code)
}

func TestWaitForCodeFirstDeliveryWins(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	for _, code := range []string{"first", "second"} {
		resp, err := http.Get(srv.CallbackURL() + "/?code=" + code)
		require.NoError(t, err)
		resp.Body.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := srv.WaitForCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestWaitForCodeEmptyWhenCodeMissing(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	resp, err := http.Get(srv.CallbackURL())
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := srv.WaitForCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", code)
}

func TestWaitForCodeCancellation(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = srv.WaitForCode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseIsIdempotentAndReleasesPort(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)

	url := srv.CallbackURL()
	srv.Close()
	srv.Close()

	// The port is released; a new request must fail to connect.
	client := &http.Client{Timeout: time.Second}
	_, err = client.Get(url)
	assert.Error(t, err)
}
