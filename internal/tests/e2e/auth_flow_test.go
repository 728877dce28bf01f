package e2e

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/missionlog/domain"
)

func TestHealth(t *testing.T) {
	s := NewTestServer(t)

	status, env := s.Do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

// TestRegistrationFlow walks a student from sign-up to an authenticated profile read
func TestRegistrationFlow(t *testing.T) {
	for name, opts := range map[string][]serverOption{
		"memory store": nil,
		"redis store":  {withRedis(t)},
	} {
		t.Run(name, func(t *testing.T) {
			s := NewTestServer(t, opts...)

			code := s.Register("New@X.com", "Pat")
			require.Len(t, code, 6)

			wrong := "000000"
			if code == wrong {
				wrong = "111111"
			}
			status, env := s.Verify("new@x.com", wrong)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "invalid otp code", env.Message)

			status, env = s.Verify("new@x.com", code)
			require.Equal(t, http.StatusOK, status, env.Message)
			identity := env.Data["identity"].(map[string]any)
			assert.Equal(t, "new@x.com", identity["email"])
			assert.Equal(t, "Pat", identity["name"])
			assert.Equal(t, "student", identity["role"])

			// the code is single use
			status, _ = s.Verify("new@x.com", code)
			assert.Equal(t, http.StatusBadRequest, status)

			token, _ := s.Login("new@x.com")

			status, env = s.Do(http.MethodGet, "/auth/me", token, nil)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, identity["id"], env.Data["identity"].(map[string]any)["id"])

			status, _ = s.Do(http.MethodGet, "/auth/me", "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestRegistration_Duplicate(t *testing.T) {
	s := NewTestServer(t)
	s.Signup("pat@example.com", "Pat")

	status, env := s.Do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "PAT@example.com", "name": "Pat again", "password": password,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.ErrDuplicateIdentity.Error(), env.Message)
}

func TestRegistration_ReRegisterReplacesCode(t *testing.T) {
	s := NewTestServer(t)

	first := s.Register("pat@example.com", "Pat")
	second := s.Register("pat@example.com", "Patricia")

	if first != second {
		status, _ := s.Verify("pat@example.com", first)
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, env := s.Verify("pat@example.com", second)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Patricia", env.Data["identity"].(map[string]any)["name"])
}

func TestRegistration_ValidationErrors(t *testing.T) {
	s := NewTestServer(t)

	status, env := s.Do(http.MethodPost, "/auth/register", "", map[string]string{"email": "nope", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "email must be a valid email address")
	assert.Contains(t, env.Message, "name is required")
	assert.Contains(t, env.Message, "password must be at least 6 characters")

	status, _ = s.Verify("nobody@example.com", "123456")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegistration_ConcurrentVerifyCreatesOneIdentity(t *testing.T) {
	s := NewTestServer(t)
	code := s.Register("race@example.com", "Racer")

	const attempts = 8
	var wg sync.WaitGroup
	statuses := make(chan int, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := s.Verify("race@example.com", code)
			statuses <- status
		}()
	}
	wg.Wait()
	close(statuses)

	ok := 0
	for status := range statuses {
		if status == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, status)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestProduction_HidesOTP(t *testing.T) {
	s := NewTestServer(t, withProduction())

	status, env := s.Do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "prod@example.com", "name": "Prod", "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	_, present := env.Data["developmentOTP"]
	assert.False(t, present)
	assert.Equal(t, true, env.Data["emailDelivered"])

	record, err := s.Container.Pending.Find(context.Background(), "prod@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if record.OTPCode == wrong {
		wrong = "111111"
	}
	status, env = s.Verify("prod@example.com", wrong)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "verification failed", env.Message)

	status, _ = s.Verify("prod@example.com", record.OTPCode)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name        string
		opts        []serverOption
		unknownMsg  string
		wrongPwdMsg string
	}{
		{name: "distinct messages", unknownMsg: "no account found for this email", wrongPwdMsg: "incorrect password"},
		{name: "uniform messages", opts: []serverOption{withUniformLoginErrors()}, unknownMsg: "invalid email or password", wrongPwdMsg: "invalid email or password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTestServer(t, tt.opts...)
			s.Signup("pat@example.com", "Pat")

			status, env := s.Do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": password})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.unknownMsg, env.Message)

			status, env = s.Do(http.MethodPost, "/auth/login", "", map[string]string{"email": "pat@example.com", "password": "wrong-password"})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.wrongPwdMsg, env.Message)
		})
	}
}

func TestTamperedToken(t *testing.T) {
	s := NewTestServer(t)
	token, _ := s.Signup("pat@example.com", "Pat")

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	status, env := s.Do(http.MethodGet, "/auth/me", tampered, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication required", env.Message)

	status, _ = s.Do(http.MethodGet, "/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateProfile_CannotChangeRole(t *testing.T) {
	s := NewTestServer(t)
	token, _ := s.Signup("pat@example.com", "Pat")

	status, env := s.Do(http.MethodPatch, "/auth/me", token, map[string]string{"name": "Robin", "role": "admin"})
	require.Equal(t, http.StatusOK, status, env.Message)
	identity := env.Data["identity"].(map[string]any)
	assert.Equal(t, "Robin", identity["name"])
	assert.Equal(t, "student", identity["role"])

	status, _ = s.Do(http.MethodGet, "/admin/policies", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
