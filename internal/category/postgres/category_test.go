package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umoc-outing-club/gear-locker/internal/category"
	categoryPostgres "github.com/umoc-outing-club/gear-locker/internal/category/postgres"
	categoryDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/category"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCategoryPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Postgres Suite")
}

var _ = Describe("Category PostgreSQL Repository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo category.RepositoryAPI
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

		Expect(db.AutoMigrate(&categoryDatamodel.GearCategory{})).To(Succeed())

		repo = categoryPostgres.NewCategoryRepository(db)
	})

	Describe("Create", func() {
		It("should create a new category", func() {
			cat := &categoryDatamodel.GearCategory{Name: "tent", Description: "Shelters", IsActive: true}

			Expect(repo.Create(ctx, cat)).To(Succeed())
			Expect(cat.ID).To(BeNumerically(">", 0))
			Expect(cat.CreatedAt).NotTo(BeZero())
		})

		It("should fail to create a duplicate name", func() {
			Expect(repo.Create(ctx, &categoryDatamodel.GearCategory{Name: "tent", IsActive: true})).To(Succeed())
			Expect(repo.Create(ctx, &categoryDatamodel.GearCategory{Name: "tent", IsActive: true})).NotTo(Succeed())
		})
	})

	Describe("GetAll", func() {
		It("should return every category ordered by name", func() {
			for _, name := range []string{"tent", "backpack", "stove"} {
				Expect(repo.Create(ctx, &categoryDatamodel.GearCategory{Name: name, IsActive: true})).To(Succeed())
			}

			categories, err := repo.GetAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(HaveLen(3))
			Expect(categories[0].Name).To(Equal("backpack"))
			Expect(categories[2].Name).To(Equal("tent"))
		})
	})

	Describe("GetByName", func() {
		It("should find an existing category", func() {
			Expect(repo.Create(ctx, &categoryDatamodel.GearCategory{Name: "tent", Description: "Shelters", IsActive: true})).To(Succeed())

			cat, err := repo.GetByName(ctx, "tent")
			Expect(err).NotTo(HaveOccurred())
			Expect(cat.Description).To(Equal("Shelters"))
		})

		It("should return nil for a missing category", func() {
			cat, err := repo.GetByName(ctx, "kayak")
			Expect(err).NotTo(HaveOccurred())
			Expect(cat).To(BeNil())
		})
	})
})
