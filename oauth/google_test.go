package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("id_token") {
		case "good":
			_, _ = w.Write([]byte(`{"aud":"client-1","sub":"1234","email":"ana@example.com","email_verified":"true","name":"Ana","picture":"https://img/ana.png"}`))
		case "other-aud":
			_, _ = w.Write([]byte(`{"aud":"client-2","sub":"1234","email":"ana@example.com","name":"Ana"}`))
		case "no-name":
			_, _ = w.Write([]byte(`{"aud":"client-1","sub":"1234","email":"ana@example.com"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifier(t *testing.T) {
	srv := tokenServer(t)
	v := NewGoogleVerifier("client-1", zap.NewNop(), WithEndpoint(srv.URL))
	ctx := context.Background()

	id, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "1234", Email: "ana@example.com", Name: "Ana", Picture: "https://img/ana.png"}, id)

	_, err = v.Verify(ctx, "other-aud")
	assert.ErrorIs(t, err, ErrWrongAudience)

	_, err = v.Verify(ctx, "no-name")
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = v.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
