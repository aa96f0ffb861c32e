package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/auth"
	authPostgres "github.com/frahmantamala/power-data-portal/internal/auth/postgres"
	historyDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/history"
	requestDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/power-data-portal/internal/equipment/postgres"
	"github.com/frahmantamala/power-data-portal/internal/history"
	historyPostgres "github.com/frahmantamala/power-data-portal/internal/history/postgres"
	"github.com/frahmantamala/power-data-portal/internal/mail"
	requestPostgres "github.com/frahmantamala/power-data-portal/internal/request/postgres"
	"github.com/frahmantamala/power-data-portal/internal/transport"
	"github.com/frahmantamala/power-data-portal/internal/transport/rest"
	"github.com/frahmantamala/power-data-portal/internal/user"
	userPostgres "github.com/frahmantamala/power-data-portal/internal/user/postgres"
	"github.com/frahmantamala/power-data-portal/internal/workflow"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const busBody = `{"busName":"B1","location":"L1","voltagePower":"400","nominalKV":"400"}`

var _ = Describe("Router", func() {
	var (
		ctx        context.Context
		router     *chi.Mux
		bus        *events.EventBus
		mailer     *mail.LogMailer
		adminToken string
		userToken  string
	)

	call := func(method, path, token, body string) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body == "" {
			reader = bytes.NewReader(nil)
		} else {
			reader = bytes.NewReader([]byte(body))
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, dst interface{}) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), dst)).To(Succeed(), rec.Body.String())
	}

	login := func(email, password string) *httptest.ResponseRecorder {
		return call(http.MethodPost, "/api/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	}

	tokenOf := func(email, password string) string {
		rec := login(email, password)
		ExpectWithOffset(1, rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var result auth.LoginResult
		decode(rec, &result)
		return result.Token
	}

	BeforeEach(func() {
		ctx = context.Background()
		gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		models := []interface{}{&userDatamodel.User{}, &historyDatamodel.Entry{}, &requestDatamodel.PendingRequest{}}
		for _, d := range equipment.All() {
			models = append(models, d.New())
		}
		Expect(gdb.AutoMigrate(models...)).To(Succeed())

		log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
		base := transport.NewBaseHandler(log)
		bus = events.NewEventBus(log)
		mailer = mail.NewLogMailer(log)

		historySvc := history.NewService(historyPostgres.NewHistoryRepository(gdb), log)
		equipmentSvc := equipment.NewService(equipmentPostgres.NewEquipmentRepository(gdb), historySvc, log)
		authRepo := authPostgres.NewRepository(gdb)
		authSvc := auth.NewService(authRepo, auth.NewJWTTokenGenerator("0123456789abcdef0123456789abcdef", time.Hour), mailer,
			auth.Options{BCryptCost: 4, ResetBaseURL: "http://portal.test"}, log)
		userSvc := user.NewService(userPostgres.NewRepository(sqlx.NewDb(sqlDB, "sqlite3")), mailer, log)
		workflowSvc := workflow.NewService(equipmentSvc, requestPostgres.NewRequestRepository(gdb), bus, log)

		for _, u := range []struct{ name, email, role string }{
			{"Admin", "admin@example.com", "admin"},
			{"Field", "field@example.com", "user"},
		} {
			hash, err := authSvc.HashPassword("password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(authRepo.Create(ctx, &userDatamodel.User{
				Name: u.name, Email: u.email, PasswordHash: hash, Role: u.role, Status: "active",
			})).To(Succeed())
		}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, auth.NewGuard(base, authSvc), base, rest.Handlers{
			Health:    rest.NewHealthHandler(base, sqlDB, nil, historySvc),
			Auth:      auth.NewHandler(base, authSvc),
			Users:     user.NewHandler(base, userSvc),
			Equipment: equipment.NewHandler(base, equipmentSvc),
			Workflow:  workflow.NewHandler(base, workflowSvc),
			History:   history.NewHandler(base, historySvc),
		}, rest.Options{AllowedOrigins: "*", RateLimit: internal.RateLimitConfig{Enabled: true}, Logger: log})

		adminToken = tokenOf("admin@example.com", "password123")
		userToken = tokenOf("field@example.com", "password123")
	})

	AfterEach(func() {
		Expect(bus.Wait(ctx)).To(Succeed())
	})

	Describe("access policy", func() {
		It("requires a token to create any kind", func() {
			Expect(call(http.MethodPost, "/api/bus", "", busBody).Code).To(Equal(http.StatusUnauthorized))
			Expect(call(http.MethodPost, "/api/generator", "", `{"generatorName":"G1"}`).Code).To(Equal(http.StatusUnauthorized))
			Expect(call(http.MethodGet, "/api/bus", "not-a-token", "").Code).To(Equal(http.StatusUnauthorized))
		})

		It("keeps admin routes from regular users", func() {
			Expect(call(http.MethodGet, "/api/history", userToken, "").Code).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodGet, "/api/pending-requests", userToken, "").Code).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodGet, "/api/users", userToken, "").Code).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodPatch, "/api/bus/1", userToken, `{"location":"X"}`).Code).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodDelete, "/api/bus/1", userToken, "").Code).To(Equal(http.StatusForbidden))
		})

		It("serves ping, health and the api document", func() {
			Expect(call(http.MethodGet, "/api/ping", "", "").Code).To(Equal(http.StatusOK))

			rec := call(http.MethodGet, "/api/health", "", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var health rest.HealthResponse
			decode(rec, &health)
			Expect(health.Components).To(HaveKey("postgres"))
			Expect(health.Components["history"].Details).To(HaveKeyWithValue("append_failures", BeNumerically("==", 0)))

			Expect(call(http.MethodGet, "/openapi.yml", "", "").Body.String()).To(ContainSubstring("openapi: 3.0.3"))
		})
	})

	Describe("equipment", func() {
		It("reports an empty collection as 404", func() {
			rec := call(http.MethodGet, "/api/bus", userToken, "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			var body map[string]interface{}
			decode(rec, &body)
			Expect(body["error"]).To(Equal("No buses found"))
		})

		It("rejects unknown data types", func() {
			Expect(call(http.MethodGet, "/api/windmill", userToken, "").Code).To(Equal(http.StatusBadRequest))
			Expect(call(http.MethodPost, "/api/windmill", adminToken, "{}").Code).To(Equal(http.StatusBadRequest))
		})

		It("commits admin submissions with a history entry", func() {
			rec := call(http.MethodPost, "/api/bus", adminToken, busBody)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			var created map[string]interface{}
			decode(rec, &created)
			id := int64(created["id"].(float64))

			rec = call(http.MethodGet, fmt.Sprintf("/api/bus/%d", id), userToken, "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"busName":"B1"`))

			var entries []history.Entry
			decode(call(http.MethodGet, "/api/history", adminToken, ""), &entries)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(history.ActionCreate))
			Expect(entries[0].RecordID).To(Equal(id))
		})

		It("round-trips an update and records it", func() {
			var created map[string]interface{}
			decode(call(http.MethodPost, "/api/bus", adminToken, busBody), &created)
			path := fmt.Sprintf("/api/bus/%d", int64(created["id"].(float64)))

			Expect(call(http.MethodPut, path, adminToken, `{"location":"L2"}`).Code).To(Equal(http.StatusOK))

			rec := call(http.MethodGet, path, userToken, "")
			Expect(rec.Body.String()).To(ContainSubstring(`"location":"L2"`))
			Expect(rec.Body.String()).To(ContainSubstring(`"busName":"B1"`))

			var entries []history.Entry
			decode(call(http.MethodGet, "/api/history?action=update", adminToken, ""), &entries)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Details).To(ContainSubstring(`location: "L1" -> "L2"`))
		})

		It("rejects an invalid admin submission", func() {
			rec := call(http.MethodPost, "/api/bus", adminToken, `{"busName":"B1"}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("approval workflow", func() {
		submit := func() int64 {
			rec := call(http.MethodPost, "/api/bus", userToken, busBody)
			ExpectWithOffset(1, rec.Code).To(Equal(http.StatusAccepted), rec.Body.String())
			var body struct {
				Request struct {
					ID int64 `json:"id"`
				} `json:"request"`
			}
			decode(rec, &body)
			return body.Request.ID
		}

		It("queues user submissions without creating a record", func() {
			submit()
			Expect(call(http.MethodGet, "/api/bus", userToken, "").Code).To(Equal(http.StatusNotFound))

			var pending []map[string]interface{}
			decode(call(http.MethodGet, "/api/pending-requests", adminToken, ""), &pending)
			Expect(pending).To(HaveLen(1))
			Expect(pending[0]["submittedBy"]).To(Equal("field@example.com"))
		})

		It("creates the record on approval", func() {
			id := submit()
			rec := call(http.MethodPatch, fmt.Sprintf("/api/update-request/%d", id), adminToken, `{"status":"approved"}`)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

			var records []map[string]interface{}
			decode(call(http.MethodGet, "/api/bus", userToken, ""), &records)
			Expect(records).To(HaveLen(1))
			Expect(records[0]["createdBy"]).To(Equal("field@example.com"))

			again := call(http.MethodPatch, fmt.Sprintf("/api/update-request/%d", id), adminToken, `{"status":"approved"}`)
			Expect(again.Code).To(Equal(http.StatusBadRequest))
		})

		It("drops the request on rejection", func() {
			id := submit()
			rec := call(http.MethodPatch, fmt.Sprintf("/api/update-request/%d", id), adminToken, `{"status":"rejected"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var pending []map[string]interface{}
			decode(call(http.MethodGet, "/api/pending-requests?status=all", adminToken, ""), &pending)
			Expect(pending).To(BeEmpty())
			Expect(call(http.MethodGet, "/api/bus", userToken, "").Code).To(Equal(http.StatusNotFound))
		})

		It("answers 404 for an unknown request", func() {
			Expect(call(http.MethodPatch, "/api/update-request/999", adminToken, `{"status":"approved"}`).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("accounts", func() {
		It("lets an admin accept a registration", func() {
			rec := call(http.MethodPost, "/api/requestLogin", "", `{"name":"New","email":"new@example.com","password":"password123"}`)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

			Expect(login("new@example.com", "password123").Code).To(Equal(http.StatusForbidden))

			var pending []map[string]interface{}
			decode(call(http.MethodGet, "/api/users?status=pending", adminToken, ""), &pending)
			Expect(pending).To(HaveLen(1))
			id := int64(pending[0]["id"].(float64))

			rec = call(http.MethodPatch, fmt.Sprintf("/api/users/%d", id), adminToken, `{"status":"active"}`)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(login("new@example.com", "password123").Code).To(Equal(http.StatusOK))
		})

		It("serves the profile and changes the password", func() {
			rec := call(http.MethodGet, "/api/user/profile", userToken, "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("field@example.com"))
			Expect(rec.Body.String()).NotTo(ContainSubstring("password"))

			rec = call(http.MethodPut, "/api/user/change-password", userToken, `{"currentPassword":"password123","newPassword":"newpassword1"}`)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(login("field@example.com", "password123").Code).To(Equal(http.StatusUnauthorized))
			Expect(login("field@example.com", "newpassword1").Code).To(Equal(http.StatusOK))
		})

		It("answers forgot-password the same for unknown emails", func() {
			Expect(call(http.MethodPost, "/api/forgot-password", "", `{"email":"ghost@example.com"}`).Code).To(Equal(http.StatusOK))
			Expect(call(http.MethodPost, "/api/forgot-password", "", `{"email":"field@example.com"}`).Code).To(Equal(http.StatusOK))
			Expect(mailer.Sent()).To(HaveLen(1))
		})
	})
})
