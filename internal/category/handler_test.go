package category_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umoc-outing-club/gear-locker/internal/category"
	categoryPostgres "github.com/umoc-outing-club/gear-locker/internal/category/postgres"
	categoryDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/category"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		repo    category.RepositoryAPI
		service *category.Service
		handler *category.Handler
		slogger *slog.Logger
	)

	BeforeEach(func() {
		var err error
		ctx := context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&categoryDatamodel.GearCategory{})).To(Succeed())

		repo = categoryPostgres.NewCategoryRepository(db)
		service = category.NewService(repo, slogger)
		handler = category.NewHandler(transport.NewBaseHandler(slogger), service)

		_, err = service.Create(ctx, "tent", "Shelters")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, "stove", "Cooking")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, "retired", "No longer lent out")
		Expect(err).NotTo(HaveOccurred())

		// is_active defaults to true on insert, so deactivate afterwards
		Expect(db.Model(&categoryDatamodel.GearCategory{}).Where("name = ?", "retired").Update("is_active", false).Error).To(Succeed())
	})

	It("should handle GET /api/categories", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		w := httptest.NewRecorder()

		handler.GetCategories(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, len(response.Categories))
		for i, cat := range response.Categories {
			names[i] = cat.Name
			Expect(cat.Description).NotTo(BeEmpty())
		}
		Expect(names).To(Equal([]string{"stove", "tent"}))
	})
})
