package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/verigate/verigate/internal/common"
	"github.com/verigate/verigate/internal/logging"
	"github.com/verigate/verigate/internal/server/auth"
	"github.com/verigate/verigate/internal/server/config"
	"github.com/verigate/verigate/internal/server/mail"
)

// --- fakes ---

type fakeRepo struct {
	users     map[string]*User
	getErr    error
	createErr error
	created   []*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, user *User) (*User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[user.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	user.ID = "id-" + user.Email
	user.CreatedAt = time.Now()
	f.users[user.Email] = user
	f.created = append(f.created, user)
	return user, nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// --- helpers ---

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		EmailTokenSecret: testSecret,
		EmailTokenTTL:    time.Hour,
		ClientBaseURL:    "http://client.test",
		BcryptCost:       bcrypt.MinCost,
	}
}

func newTestService(t *testing.T, repo Repository, mailer mail.Mailer) *Service {
	t.Helper()
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(repo, mailer, l, testConfig())
}

// tokenFromMessage pulls the token out of the verification link in the mail
// body.
func tokenFromMessage(t *testing.T, msg mail.Message) string {
	t.Helper()
	const marker = "/email_verification/"
	i := strings.Index(msg.HTMLBody, marker)
	require.GreaterOrEqual(t, i, 0, "mail body must contain the verification link")
	rest := msg.HTMLBody[i+len(marker):]
	end := strings.IndexAny(rest, "<\" \n")
	require.Greater(t, end, 0, "token must be delimited in the mail body")
	return rest[:end]
}

// --- SignUp ---

func TestSignUp_DuplicateEmail_NoMailSent(t *testing.T) {
	repo := newFakeRepo()
	repo.users["taken@example.com"] = &User{Email: "taken@example.com"}
	mailer := &fakeMailer{}
	svc := newTestService(t, repo, mailer)

	err := svc.SignUp(context.Background(), "taken@example.com", "Taken", "pw")

	require.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Empty(t, mailer.sent)
}

func TestSignUp_FreshEmail_DispatchesDecodableToken(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := newTestService(t, repo, mailer)

	err := svc.SignUp(context.Background(), "new@example.com", "New User", "pw-123")

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, "new@example.com", msg.To)
	assert.Equal(t, "Verify your email address", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "http://client.test/email_verification/")

	claims, err := auth.ParseRegistration(tokenFromMessage(t, msg), []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Email)
	assert.Equal(t, "New User", claims.Name)
	assert.Equal(t, "pw-123", claims.Password)

	// signup alone writes nothing
	assert.Empty(t, repo.created)
}

func TestSignUp_MailerFailure_SurfacesDispatchError(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{err: errors.New("provider down")}
	svc := newTestService(t, repo, mailer)

	err := svc.SignUp(context.Background(), "new@example.com", "New User", "pw")

	require.ErrorIs(t, err, common.ErrDispatchFailed)
}

func TestSignUp_RepoFailure_SurfacesInternal(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = errors.New("connection reset")
	svc := newTestService(t, repo, &fakeMailer{})

	err := svc.SignUp(context.Background(), "x@example.com", "X", "pw")

	require.ErrorIs(t, err, common.ErrInternal)
}

// --- Verify ---

func TestVerify_ValidToken_CreatesUserWithHashedPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeMailer{})

	tok, err := auth.SignRegistration("v@example.com", "Vera", "plaintext-pw", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	profile, err := svc.Verify(context.Background(), tok)

	require.NoError(t, err)
	assert.Equal(t, "v@example.com", profile.Email)
	assert.Equal(t, "Vera", profile.Name)
	assert.Empty(t, profile.Token)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.NotEqual(t, "plaintext-pw", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("plaintext-pw")))
}

func TestVerify_ExpiredToken_Fails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeMailer{})

	tok, err := auth.SignRegistration("v@example.com", "Vera", "pw", []byte(testSecret), -1*time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)

	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.Empty(t, repo.created)
}

func TestVerify_TamperedToken_Fails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeMailer{})

	tok, err := auth.SignRegistration("v@example.com", "Vera", "pw", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)

	require.ErrorIs(t, err, common.ErrTokenInvalid)
	assert.Empty(t, repo.created)
}

func TestVerify_ReplayedToken_FailsWithoutWrite(t *testing.T) {
	repo := newFakeRepo()
	repo.users["v@example.com"] = &User{Email: "v@example.com"}
	svc := newTestService(t, repo, &fakeMailer{})

	tok, err := auth.SignRegistration("v@example.com", "Vera", "pw", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)

	require.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Empty(t, repo.created)
}

func TestVerify_LostInsertRace_SurfacesAlreadyExists(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = common.ErrAlreadyExists
	svc := newTestService(t, repo, &fakeMailer{})

	tok, err := auth.SignRegistration("v@example.com", "Vera", "pw", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)

	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

// --- SignIn ---

func TestSignIn_CorrectCredentials_ReturnsProfile(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newFakeRepo()
	repo.users["s@example.com"] = &User{Email: "s@example.com", Name: "Sam", PasswordHash: string(hash)}
	svc := newTestService(t, repo, &fakeMailer{})

	profile, err := svc.SignIn(context.Background(), "s@example.com", "right-pw")

	require.NoError(t, err)
	assert.Equal(t, "s@example.com", profile.Email)
	assert.Equal(t, "Sam", profile.Name)
	assert.Equal(t, "sample token", profile.Token)
}

func TestSignIn_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newFakeRepo()
	repo.users["s@example.com"] = &User{Email: "s@example.com", Name: "Sam", PasswordHash: string(hash)}
	svc := newTestService(t, repo, &fakeMailer{})

	_, err = svc.SignIn(context.Background(), "s@example.com", "wrong-pw")

	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeMailer{})

	_, err := svc.SignIn(context.Background(), "ghost@example.com", "pw")

	require.ErrorIs(t, err, common.ErrNotFound)
}
