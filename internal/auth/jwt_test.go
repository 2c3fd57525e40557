package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcita/appointment-scheduling/internal/directory"
)

func testPatient() *directory.Patient {
	return &directory.Patient{
		ID:    uuid.New(),
		Name:  "Ana Torres",
		Email: "ana@example.com",
		Role:  directory.RolePatient,
	}
}

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	patient := testPatient()

	token, err := m.Issue(patient)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, patient.ID, id)
	assert.Equal(t, directory.RolePatient, claims.Role)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue(testPatient())
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	token, err := m.Issue(testPatient())
	require.NoError(t, err)

	m.now = func() time.Time { return time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	patient := testPatient()

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Middleware(next)

	// Missing header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token reaches the handler with claims in context.
	token, err := m.Issue(patient)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, patient.ID.String(), gotClaims.Subject)
}
