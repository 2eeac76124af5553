package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umoc-outing-club/gear-locker/internal/auth/postgres"
	identityDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/identity"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAuthRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuthRepository Suite")
}

var _ = Describe("IdentityRepository", func() {
	var (
		ctx    context.Context
		db     *gorm.DB
		repo   *postgres.IdentityRepository
		lookup *postgres.UserLookup
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&identityDatamodel.Identity{}, &userDatamodel.User{})).To(Succeed())

		repo = postgres.NewIdentityRepository(db)
		lookup = postgres.NewUserLookup(db)
	})

	It("should create and find identities by email and id", func() {
		Expect(repo.Create(ctx, &identityDatamodel.Identity{ID: "uid-1", Email: "member@umass.edu", PasswordHash: "hash"})).To(Succeed())

		byEmail, err := repo.GetByEmail(ctx, "member@umass.edu")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal("uid-1"))

		byID, err := repo.GetByID(ctx, "uid-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("member@umass.edu"))
	})

	It("should return nil for unknown identities", func() {
		identity, err := repo.GetByEmail(ctx, "nobody@umass.edu")
		Expect(err).NotTo(HaveOccurred())
		Expect(identity).To(BeNil())
	})

	It("should refuse duplicate emails", func() {
		Expect(repo.Create(ctx, &identityDatamodel.Identity{ID: "uid-1", Email: "member@umass.edu", PasswordHash: "hash"})).To(Succeed())
		Expect(repo.Create(ctx, &identityDatamodel.Identity{ID: "uid-2", Email: "member@umass.edu", PasswordHash: "hash"})).NotTo(Succeed())
	})

	It("should bump the token version", func() {
		Expect(repo.Create(ctx, &identityDatamodel.Identity{ID: "uid-1", Email: "member@umass.edu", PasswordHash: "hash"})).To(Succeed())

		Expect(repo.IncrementTokenVersion(ctx, "uid-1")).To(Succeed())
		Expect(repo.IncrementTokenVersion(ctx, "uid-1")).To(Succeed())

		identity, err := repo.GetByID(ctx, "uid-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(identity.TokenVersion).To(Equal(2))

		Expect(repo.IncrementTokenVersion(ctx, "missing")).To(MatchError(gorm.ErrRecordNotFound))
	})

	It("should change the sign-in email", func() {
		Expect(repo.Create(ctx, &identityDatamodel.Identity{ID: "uid-1", Email: "member@umass.edu", PasswordHash: "hash"})).To(Succeed())

		found, err := repo.UpdateEmail(ctx, "uid-1", "pat@umass.edu")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())

		identity, err := repo.GetByEmail(ctx, "pat@umass.edu")
		Expect(err).NotTo(HaveOccurred())
		Expect(identity.ID).To(Equal("uid-1"))

		found, err = repo.UpdateEmail(ctx, "missing", "nobody@umass.edu")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("should read guard fields from the users table", func() {
		spire := "12345678"
		Expect(db.Create(&userDatamodel.User{ID: "uid-1", Email: "leader@umass.edu", Name: "Leader", PermLvl: 1, SpireID: &spire}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: "uid-2", Email: "member@umass.edu", Name: "Member"}).Error).To(Succeed())

		u, err := lookup.GetAuthUser(ctx, "uid-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.PermLvl).To(Equal(1))
		Expect(u.SpireID).To(Equal("12345678"))

		u, err = lookup.GetAuthUser(ctx, "uid-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.SpireID).To(BeEmpty())

		u, err = lookup.GetAuthUser(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(BeNil())
	})
})
