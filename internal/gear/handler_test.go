package gear_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umoc-outing-club/gear-locker/internal/gear"
)

var _ = Describe("Gear Handler", func() {
	var (
		repo    *mockGearRepository
		router  chi.Router
		service *gear.Service
	)

	BeforeEach(func() {
		repo = newMockGearRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = gear.NewService(repo, fakeCategories{"tent": true, "shelter": true}, newMemoryCache(), nil, logger, gear.Options{CacheTTL: time.Minute})
		handler := gear.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/api/getAllGear", handler.GetAllGear)
		router.Get("/api/getGearById", handler.GetGearByID)
		router.Post("/api/gear", handler.CreateGear)
		router.Put("/api/gear/{gearTag}", handler.UpdateGear)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should create gear and return its tag", func() {
		rec := do(http.MethodPost, "/api/gear", tentDTO())

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var resp gear.SavedResponse
		Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ID).To(Equal("TNT001"))
	})

	It("should ignore a checkedOut flag in the create body", func() {
		rec := do(http.MethodPost, "/api/gear", map[string]interface{}{
			"id":         "TNT002",
			"name":       "Tent",
			"checkedOut": true,
		})

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(repo.items["TNT002"].CheckedOut).To(BeFalse())
	})

	It("should answer 409 for a duplicate tag", func() {
		Expect(do(http.MethodPost, "/api/gear", tentDTO()).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/api/gear", tentDTO()).Code).To(Equal(http.StatusConflict))
	})

	It("should list all gear", func() {
		_, err := service.Create(context.Background(), tentDTO())
		Expect(err).NotTo(HaveOccurred())

		rec := do(http.MethodGet, "/api/getAllGear", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var items []map[string]interface{}
		Expect(json.NewDecoder(rec.Body).Decode(&items)).To(Succeed())
		Expect(items).To(HaveLen(1))
		Expect(items[0]).To(HaveKeyWithValue("id", "TNT001"))
		Expect(items[0]).To(HaveKeyWithValue("checkedOut", false))
	})

	It("should get gear by tag", func() {
		_, err := service.Create(context.Background(), tentDTO())
		Expect(err).NotTo(HaveOccurred())

		rec := do(http.MethodGet, "/api/getGearById?identifier=TNT001", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp gear.GearResponse
		Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ID).NotTo(BeEmpty())
		Expect(resp.Data.Name).To(Equal("Two person tent"))
	})

	It("should answer 400 for a malformed tag and 404 for an unknown one", func() {
		Expect(do(http.MethodGet, "/api/getGearById?identifier=bad", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/api/getGearById?identifier=XYZ999", nil).Code).To(Equal(http.StatusNotFound))
	})

	It("should update gear", func() {
		_, err := service.Create(context.Background(), tentDTO())
		Expect(err).NotTo(HaveOccurred())

		rec := do(http.MethodPut, "/api/gear/TNT001", map[string]interface{}{"name": "Renamed"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(repo.items["TNT001"].Name).To(Equal("Renamed"))
	})

	It("should reject an undecodable body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/gear", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
