// Package users holds the account model, its postgres repository, and the
// Service implementing the signup, email verification, and signin flows.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/verigate/verigate/internal/common"
	"github.com/verigate/verigate/internal/logging"
	"github.com/verigate/verigate/internal/server/auth"
	"github.com/verigate/verigate/internal/server/config"
	"github.com/verigate/verigate/internal/server/mail"
)

const verificationSubject = "Verify your email address"

// placeholderLoginToken is returned by SignIn instead of a real session
// credential. Issuing sessions is out of scope here; the constant makes the
// stub explicit to API consumers.
const placeholderLoginToken = "sample token"

// Service implements the three account operations:
//   - SignUp: reject duplicates, mint a verification token, email the link.
//   - Verify: consume the token, hash the password, persist the user.
//   - SignIn: compare credentials, return the password-free profile.
type Service struct {
	repo          Repository
	mailer        mail.Mailer
	logger        logging.Logger
	tokenSecret   []byte
	tokenTTL      time.Duration
	clientBaseURL string
	bcryptCost    int
}

// NewService constructs a Service from its collaborators and server config.
func NewService(repo Repository, mailer mail.Mailer, l logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:          repo,
		mailer:        mailer,
		logger:        l.With("module", "users"),
		tokenSecret:   []byte(cfg.EmailTokenSecret),
		tokenTTL:      cfg.EmailTokenTTL,
		clientBaseURL: strings.TrimSuffix(cfg.ClientBaseURL, "/"),
		bcryptCost:    cfg.BcryptCost,
	}
}

// SignUp starts a registration. Nothing is written to storage: the candidate
// user exists only inside the signed token attached to the verification
// email. Returns common.ErrAlreadyExists when the email is taken (no mail is
// sent) and common.ErrDispatchFailed when the mail provider refuses the
// message.
func (s *Service) SignUp(ctx context.Context, email, name, password string) error {

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return common.ErrAlreadyExists
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "signup lookup failed", "error", err.Error())
		return common.ErrInternal
	}

	token, err := auth.SignRegistration(email, name, password, s.tokenSecret, s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err.Error())
		return common.ErrInternal
	}

	if err := s.mailer.Send(ctx, s.verificationMessage(email, token)); err != nil {
		s.logger.Error(ctx, "verification mail dispatch failed", "error", err.Error())
		return common.ErrDispatchFailed
	}

	return nil
}

// Verify finalizes a registration from its token. The uniqueness re-check
// guards against re-submitting an already-consumed link; a concurrent
// finalize that slips past it is caught by the unique index inside Create,
// which surfaces as the same common.ErrAlreadyExists.
func (s *Service) Verify(ctx context.Context, token string) (*Profile, error) {

	claims, err := auth.ParseRegistration(token, s.tokenSecret)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.GetByEmail(ctx, claims.Email)
	if err == nil {
		return nil, common.ErrAlreadyExists
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "verify lookup failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(claims.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	user := &User{Email: claims.Email, Name: claims.Name, PasswordHash: string(hash)}
	if _, err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "user insert failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	return &Profile{Email: user.Email, Name: user.Name}, nil
}

// SignIn checks the submitted credentials against the stored hash. It
// returns common.ErrNotFound for an unknown email and
// common.ErrInvalidCredentials for a wrong password; the distinction is
// part of the API contract.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Profile, error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "signin lookup failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	return &Profile{Email: user.Email, Name: user.Name, Token: placeholderLoginToken}, nil
}

func (s *Service) verificationMessage(email, token string) mail.Message {
	link := fmt.Sprintf("%s/email_verification/%s", s.clientBaseURL, token)

	return mail.Message{
		To:      email,
		Subject: verificationSubject,
		HTMLBody: fmt.Sprintf(`
        <div>
          <h1>Click this URL to verify your email address for registration.</h1>
          <p>%s</p>
        </div>
      `, link),
	}
}
