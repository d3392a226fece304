package services

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// testSubscriptionKeys builds a browser-shaped key pair: a real P-256 point
// for p256dh and 16 random bytes for auth, both base64url without padding.
func testSubscriptionKeys(t *testing.T) (auth, p256dh string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	raw := make([]byte, 16)
	_, err = rand.Read(raw)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(raw),
		base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
}

func TestSendToUserPrunesOnlyGoneSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	student := createStudent(t, db, "siswa1", "XI", "RPL")
	subRepo := repository.NewPushSubscriptionRepository(db)

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	svc := NewPushService(subRepo, publicKey, privateKey,
		"mailto:admin@example.com", "http://localhost")

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer flaky.Close()

	auth, p256dh := testSubscriptionKeys(t)
	for _, endpoint := range []string{gone.URL, flaky.URL} {
		require.NoError(t, subRepo.Upsert(&models.PushSubscription{
			UserID:    student.ID,
			Endpoint:  endpoint,
			AuthKey:   auth,
			P256dhKey: p256dh,
		}))
	}

	ok := svc.SendToUser(student.ID, &PushMessage{Title: "Tes", Body: "tes"})
	assert.False(t, ok)

	// The expired endpoint is pruned, the flaky one is kept for retry.
	subs, err := subRepo.ListByUser(student.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, flaky.URL, subs[0].Endpoint)
}

func TestSendToUserDeliversAndTouches(t *testing.T) {
	db := setupTestDB(t)
	student := createStudent(t, db, "siswa1", "XI", "RPL")
	subRepo := repository.NewPushSubscriptionRepository(db)

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	svc := NewPushService(subRepo, publicKey, privateKey,
		"mailto:admin@example.com", "http://localhost")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	auth, p256dh := testSubscriptionKeys(t)
	require.NoError(t, subRepo.Upsert(&models.PushSubscription{
		UserID:    student.ID,
		Endpoint:  server.URL,
		AuthKey:   auth,
		P256dhKey: p256dh,
	}))

	ok := svc.SendToUser(student.ID, &PushMessage{Title: "Tes", Body: "tes"})
	assert.True(t, ok)

	subs, err := subRepo.ListByUser(student.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].LastUsedAt)
}
