package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("Auth middleware", func() {
	var (
		service *Service
		handler *Handler
		lookup  *mockUserLookup
		router  chi.Router
		token   string
	)

	ginkgo.BeforeEach(func() {
		ctx := context.Background()
		identities := newMockIdentityRepository()
		lookup = &mockUserLookup{users: map[string]*User{}}
		tokenGen := NewJWTTokenGenerator("test-access-secret-with-enough-bytes", "test-refresh-secret-with-enough-bytes", time.Minute, time.Hour)
		service = NewService(identities, lookup, tokenGen, bcrypt.MinCost, nil)
		handler = NewHandler(service)

		id, err := service.CreateAccount(ctx, "member@umass.edu", "correct_password")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		lookup.users[id] = &User{ID: id, Email: "member@umass.edu", PermLvl: 0}

		tokens, err := service.SignIn(ctx, SignInDTO{Email: "member@umass.edu", Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		token = tokens.AccessToken

		rbac := NewRBACAuthorization(NewPermissionChecker(), nil)
		owner := NewOwnershipPolicy(transport.NewBaseHandler(nil), NewPermissionChecker())

		router = chi.NewRouter()
		router.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware)
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				u, _ := UserFromContext(r.Context())
				w.Write([]byte(u.Email))
			})
			r.With(rbac.RequireLeader()).Get("/leaders", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			r.With(owner.RequireSelfOrManager("userId")).Put("/users/{userId}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
	})

	serve := func(method, path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("should put the caller into the request context", func() {
		rec := serve(http.MethodGet, "/me", token)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.Equal("member@umass.edu"))
	})

	ginkgo.It("should reject requests without a token", func() {
		rec := serve(http.MethodGet, "/me", "")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should reject a forged token", func() {
		rec := serve(http.MethodGet, "/me", "forged")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should keep members out of leader routes", func() {
		rec := serve(http.MethodGet, "/leaders", token)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should let members edit only their own document", func() {
		claims, err := service.ValidateAccessToken(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(serve(http.MethodPut, "/users/"+claims.UserID, token).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve(http.MethodPut, "/users/someone-else", token).Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should let locker managers edit any document", func() {
		claims, err := service.ValidateAccessToken(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		lookup.users[claims.UserID].PermLvl = 2

		gomega.Expect(serve(http.MethodPut, "/users/someone-else", token).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve(http.MethodGet, "/leaders", token).Code).To(gomega.Equal(http.StatusOK))
	})
})
