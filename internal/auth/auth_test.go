package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	for i := range hashKey {
		hashKey[i] = byte(i)
		blockKey[i] = byte(64 - i)
	}
	return NewStore(nil, hashKey, blockKey)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
	assert.False(t, CheckPassword("not a hash", "hunter2"))
}

func TestSessionRoundTrip(t *testing.T) {
	store := testStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	require.NoError(t, store.SetSession(rec, req, 42))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "fieldsched_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	next := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	next.AddCookie(cookies[0])
	sess, ok := store.GetSession(next)
	require.True(t, ok)
	assert.Equal(t, int64(42), sess.UserID)
}

func TestGetSessionRejectsGarbage(t *testing.T) {
	store := testStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := store.GetSession(req)
	assert.False(t, ok, "no cookie")

	req.AddCookie(&http.Cookie{Name: "fieldsched_session", Value: "tampered"})
	_, ok = store.GetSession(req)
	assert.False(t, ok, "undecodable cookie")
}

func TestSessionsAreKeyBound(t *testing.T) {
	a := testStore(t)
	b := NewStore(nil, make([]byte, 32), make([]byte, 32))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, a.SetSession(rec, req, 42))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	_, ok := b.GetSession(next)
	assert.False(t, ok)
}

func TestRequireAuth(t *testing.T) {
	store := testStore(t)

	var gotUID int64
	handler := store.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUID = uid
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required","code":"unauthenticated"}`, rec.Body.String())

	loginRec := httptest.NewRecorder()
	require.NoError(t, store.SetSession(loginRec, httptest.NewRequest(http.MethodPost, "/", nil), 7))
	authed := httptest.NewRequest(http.MethodGet, "/", nil)
	authed.AddCookie(loginRec.Result().Cookies()[0])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authed)
	assert.Equal(t, int64(7), gotUID)
}

func TestClearSessionExpiresCookie(t *testing.T) {
	store := testStore(t)
	rec := httptest.NewRecorder()
	store.ClearSession(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}
