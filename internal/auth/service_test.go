package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	identityDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/identity"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// mockIdentityRepository keeps identities in memory keyed by id.
type mockIdentityRepository struct {
	mu            sync.Mutex
	identities    map[string]*identityDatamodel.Identity
	returnError   bool
	errorToReturn error
}

func newMockIdentityRepository() *mockIdentityRepository {
	return &mockIdentityRepository{identities: map[string]*identityDatamodel.Identity{}}
}

func (m *mockIdentityRepository) Create(ctx context.Context, identity *identityDatamodel.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return m.errorToReturn
	}
	cp := *identity
	m.identities[identity.ID] = &cp
	return nil
}

func (m *mockIdentityRepository) GetByEmail(ctx context.Context, email string) (*identityDatamodel.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return nil, m.errorToReturn
	}
	for _, identity := range m.identities {
		if identity.Email == email {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockIdentityRepository) GetByID(ctx context.Context, id string) (*identityDatamodel.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return nil, m.errorToReturn
	}
	if identity, ok := m.identities[id]; ok {
		cp := *identity
		return &cp, nil
	}
	return nil, nil
}

func (m *mockIdentityRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return m.errorToReturn
	}
	identity, ok := m.identities[id]
	if !ok {
		return errors.New("record not found")
	}
	identity.TokenVersion++
	return nil
}

func (m *mockIdentityRepository) UpdateEmail(ctx context.Context, id, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return false, m.errorToReturn
	}
	identity, ok := m.identities[id]
	if !ok {
		return false, nil
	}
	identity.Email = email
	return true, nil
}

func (m *mockIdentityRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

type mockUserLookup struct {
	users map[string]*User
}

func (m *mockUserLookup) GetAuthUser(ctx context.Context, userID string) (*User, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service       *Service
		identities    *mockIdentityRepository
		lookup        *mockUserLookup
		tokenGen      *JWTTokenGenerator
		ctx           context.Context
		accessSecret  string        = "test-access-secret-with-enough-bytes"
		refreshSecret string        = "test-refresh-secret-with-enough-bytes"
		accessTTL     time.Duration = 15 * time.Minute
		refreshTTL    time.Duration = 24 * time.Hour
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		identities = newMockIdentityRepository()
		lookup = &mockUserLookup{users: map[string]*User{}}
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, accessTTL, refreshTTL)
		service = NewService(identities, lookup, tokenGen, bcrypt.MinCost, nil)
	})

	ginkgo.Describe("CreateAccount", func() {
		ginkgo.It("should store a hashed password and return the new id", func() {
			id, err := service.CreateAccount(ctx, "member@umass.edu", "correct_password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).ToNot(gomega.BeEmpty())

			stored, _ := identities.GetByID(ctx, id)
			gomega.Expect(stored).ToNot(gomega.BeNil())
			gomega.Expect(stored.PasswordHash).ToNot(gomega.Equal("correct_password"))
			gomega.Expect(VerifyPassword(stored.PasswordHash, "correct_password")).To(gomega.Succeed())
		})

		ginkgo.It("should reject a second account for the same email", func() {
			_, err := service.CreateAccount(ctx, "member@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.CreateAccount(ctx, "member@umass.edu", "another_password")

			gomega.Expect(errors.Is(err, apperrors.ErrDuplicateAccount)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a malformed email", func() {
			_, err := service.CreateAccount(ctx, "not-an-email", "correct_password")

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeInvalidEmail))
		})

		ginkgo.It("should reject a short password", func() {
			_, err := service.CreateAccount(ctx, "member@umass.edu", "short")

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeInvalidPassword))
		})

		ginkgo.It("should report store failures as internal errors", func() {
			identities.setError(errors.New("connection refused"))

			_, err := service.CreateAccount(ctx, "member@umass.edu", "correct_password")

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeInternal))
		})
	})

	ginkgo.Describe("ChangeEmail", func() {
		var userID string

		ginkgo.BeforeEach(func() {
			var err error
			userID, err = service.CreateAccount(ctx, "member@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should sign in with the new address only", func() {
			gomega.Expect(service.ChangeEmail(ctx, userID, "pat@umass.edu")).To(gomega.Succeed())

			id, err := service.Authenticate(ctx, "pat@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(userID))

			_, err = service.Authenticate(ctx, "member@umass.edu", "correct_password")
			gomega.Expect(errors.Is(err, apperrors.ErrInvalidCredentials)).To(gomega.BeTrue())
		})

		ginkgo.It("should accept the address the identity already has", func() {
			gomega.Expect(service.ChangeEmail(ctx, userID, "member@umass.edu")).To(gomega.Succeed())
		})

		ginkgo.It("should refuse an address another account uses", func() {
			_, err := service.CreateAccount(ctx, "other@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = service.ChangeEmail(ctx, userID, "other@umass.edu")

			gomega.Expect(errors.Is(err, apperrors.ErrDuplicateAccount)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a malformed address", func() {
			err := service.ChangeEmail(ctx, userID, "not-an-email")

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeInvalidEmail))
		})

		ginkgo.It("should report an unknown identity as not found", func() {
			err := service.ChangeEmail(ctx, "missing", "pat@umass.edu")

			gomega.Expect(errors.Is(err, apperrors.ErrUserNotFound)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("SignIn", func() {
		var userID string

		ginkgo.BeforeEach(func() {
			var err error
			userID, err = service.CreateAccount(ctx, "member@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return access and refresh tokens", func() {
				tokens, err := service.SignIn(ctx, SignInDTO{Email: " member@umass.edu ", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			})

			ginkgo.It("should issue tokens that carry the user id", func() {
				tokens, err := service.SignIn(ctx, SignInDTO{Email: "member@umass.edu", Password: "correct_password"})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := service.ValidateAccessToken(tokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal(userID))
				gomega.Expect(claims.Email).To(gomega.Equal("member@umass.edu"))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should reject a wrong password", func() {
				_, err := service.SignIn(ctx, SignInDTO{Email: "member@umass.edu", Password: "wrong_password"})

				gomega.Expect(errors.Is(err, apperrors.ErrInvalidCredentials)).To(gomega.BeTrue())
			})

			ginkgo.It("should reject an unknown email with the same error", func() {
				_, err := service.SignIn(ctx, SignInDTO{Email: "nobody@umass.edu", Password: "correct_password"})

				gomega.Expect(errors.Is(err, apperrors.ErrInvalidCredentials)).To(gomega.BeTrue())
			})

			ginkgo.It("should reject an empty password before touching the store", func() {
				identities.setError(errors.New("should not be called"))

				_, err := service.SignIn(ctx, SignInDTO{Email: "member@umass.edu"})

				appErr, ok := apperrors.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeValidation))
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		var tokens AuthTokens
		var userID string

		ginkgo.BeforeEach(func() {
			var err error
			userID, err = service.CreateAccount(ctx, "member@umass.edu", "correct_password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			tokens, err = service.SignIn(ctx, SignInDTO{Email: "member@umass.edu", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should issue a fresh pair for a live refresh token", func() {
			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(userID))
		})

		ginkgo.It("should not accept an access token as a refresh token", func() {
			_, err := service.RefreshTokens(ctx, tokens.AccessToken)

			gomega.Expect(errors.Is(err, apperrors.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject refresh tokens issued before sign out", func() {
			gomega.Expect(service.SignOut(ctx, userID)).To(gomega.Succeed())

			_, err := service.RefreshTokens(ctx, tokens.RefreshToken)

			gomega.Expect(errors.Is(err, apperrors.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject garbage", func() {
			_, err := service.RefreshTokens(ctx, "not.a.token")

			gomega.Expect(errors.Is(err, apperrors.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("GetUser", func() {
		ginkgo.It("should return the stored user", func() {
			lookup.users["abc"] = &User{ID: "abc", Email: "leader@umass.edu", PermLvl: 1}

			u, err := service.GetUser(ctx, "abc")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.IsLeader()).To(gomega.BeTrue())
			gomega.Expect(u.IsLockerManager()).To(gomega.BeFalse())
		})

		ginkgo.It("should report a missing user as not found", func() {
			_, err := service.GetUser(ctx, "missing")

			gomega.Expect(errors.Is(err, apperrors.ErrUserNotFound)).To(gomega.BeTrue())
		})
	})
})

var _ = ginkgo.Describe("JWTTokenGenerator", func() {
	ginkgo.It("should report expired tokens distinctly", func() {
		gen := NewJWTTokenGenerator("test-access-secret-with-enough-bytes", "test-refresh-secret-with-enough-bytes", -time.Minute, time.Hour)
		token, err := gen.GenerateAccessToken("abc", "member@umass.edu", 0)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = gen.ValidateAccessToken(token)

		gomega.Expect(errors.Is(err, apperrors.ErrTokenExpired)).To(gomega.BeTrue())
	})

	ginkgo.It("should reject tokens signed with another secret", func() {
		gen := NewJWTTokenGenerator("test-access-secret-with-enough-bytes", "test-refresh-secret-with-enough-bytes", time.Minute, time.Hour)
		other := NewJWTTokenGenerator("another-access-secret-with-enough-bytes", "test-refresh-secret-with-enough-bytes", time.Minute, time.Hour)
		token, err := other.GenerateAccessToken("abc", "member@umass.edu", 0)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = gen.ValidateAccessToken(token)

		gomega.Expect(errors.Is(err, apperrors.ErrInvalidToken)).To(gomega.BeTrue())
	})
})
