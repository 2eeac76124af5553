package custody_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"github.com/umoc-outing-club/gear-locker/internal/custody"
	"github.com/umoc-outing-club/gear-locker/internal/metrics"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
)

var _ = Describe("Custody Handler", func() {
	var (
		mockRepo *MockRepository
		router   chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = NewMockRepository()
		mockRepo.AddUser("uid-borrower", "12345678", userDatamodel.PermMember)
		mockRepo.AddUser("uid-leader", "87654321", userDatamodel.PermLeader)
		mockRepo.AddGear("gear-1", "ABC123", false)

		service := custody.NewService(mockRepo, mockRepo, nil, metrics.Noop, slogger, custody.Options{RequireLeaderRole: true})
		handler := &custody.Handler{
			BaseHandler: transport.NewBaseHandler(slogger),
			Service:     service,
		}

		router = chi.NewRouter()
		router.Post("/api/checkGear/{flag}", handler.CheckGear)
		router.Get("/api/checkOuts", handler.ListRecords)
	})

	post := func(flag string, body interface{}) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/api/checkGear/"+flag, bytes.NewReader(raw))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	validBody := map[string]string{
		"date":     "2024-03-01",
		"gearID":   "ABC123",
		"userID":   "12345678",
		"leaderID": "87654321",
	}

	It("checks gear out and returns the new record", func() {
		w := post("checkOut", validBody)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var record custody.Record
		Expect(json.NewDecoder(w.Body).Decode(&record)).To(Succeed())
		Expect(record.ID).NotTo(BeEmpty())
		Expect(record.GearTag).To(Equal("ABC123"))
		Expect(record.Direction).To(Equal("checkOut"))
		Expect(mockRepo.gear["ABC123"].CheckedOut).To(BeTrue())
	})

	It("rejects an unknown flag", func() {
		w := post("borrow", validBody)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_CHECK_FLAG"))
		Expect(mockRepo.reads).To(BeZero())
	})

	It("returns 400 with the field name for a malformed tag", func() {
		body := map[string]string{
			"date":     "2024-03-01",
			"gearID":   "AB123",
			"userID":   "12345678",
			"leaderID": "87654321",
		}
		w := post("checkOut", body)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_GEAR_TAG"))
		Expect(w.Body.String()).To(ContainSubstring("gearID"))
		Expect(mockRepo.writes).To(BeZero())
	})

	It("returns 409 when checking in gear that is not held", func() {
		w := post("checkIn", validBody)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("GEAR_NOT_IN_POSSESSION"))
	})

	It("returns 404 for an unknown borrower", func() {
		body := map[string]string{
			"date":     "2024-03-01",
			"gearID":   "ABC123",
			"userID":   "99999999",
			"leaderID": "87654321",
		}
		w := post("checkOut", body)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("BORROWER_NOT_FOUND"))
	})

	It("returns 400 for an undecodable body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/checkGear/checkOut", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists the transaction log", func() {
		Expect(post("checkOut", validBody).Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodGet, "/api/checkOuts?gearID=ABC123&limit=10", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp custody.RecordsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Records).To(HaveLen(1))
		Expect(resp.Limit).To(Equal(10))
	})
})
