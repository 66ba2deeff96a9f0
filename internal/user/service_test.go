package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkwire/pkg/apperr"
)

type fakeStore struct {
	nextID int
	users  map[string]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (s *fakeStore) CreateUser(_ context.Context, user *User) (*User, error) {
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	s.users[user.Username] = user
	return user, nil
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id int) (*User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) SearchUsers(_ context.Context, query string) ([]User, error) {
	var out []User
	for _, u := range s.users {
		if strings.Contains(u.Username, query) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestRegisterLoginValidateRoundTrip(t *testing.T) {
	svc := NewService(newFakeStore(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, &RegisterRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)

	id, username, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID, id)
	assert.Equal(t, "alice", username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newFakeStore(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &RegisterRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	_, err = svc.Login(ctx, &RegisterRequest{Username: "nobody", Password: "x"})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc := NewService(newFakeStore(), "test-secret")

	_, err := svc.Register(context.Background(), &RegisterRequest{Username: "alice"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeStore(), "test-secret")

	_, _, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)

	// A token signed with a different secret is rejected too.
	other := NewService(newFakeStore(), "other-secret")
	_, err2 := other.Register(context.Background(), &RegisterRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err2)
	res, err2 := other.Login(context.Background(), &RegisterRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err2)

	_, _, err = svc.ValidateToken(res.AccessToken)
	require.Error(t, err)
}

func TestProfile(t *testing.T) {
	svc := NewService(newFakeStore(), "test-secret")
	ctx := context.Background()

	u, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = svc.Profile(ctx, 999)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
