package workflow_test

import (
	"context"
	"log/slog"
	"os"
	"sync"

	errors "github.com/frahmantamala/power-data-portal/internal"
	historyDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/history"
	requestDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/request"
	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/power-data-portal/internal/equipment/postgres"
	"github.com/frahmantamala/power-data-portal/internal/history"
	historyPostgres "github.com/frahmantamala/power-data-portal/internal/history/postgres"
	"github.com/frahmantamala/power-data-portal/internal/request"
	requestPostgres "github.com/frahmantamala/power-data-portal/internal/request/postgres"
	"github.com/frahmantamala/power-data-portal/internal/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type eventRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *eventRecorder) record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType())
	return nil
}

func (r *eventRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

const validBus = `{"busName":"B1","location":"L1","voltagePower":"400","nominalKV":"400"}`

var _ = Describe("Workflow coordinator", func() {
	var (
		ctx        context.Context
		bus        *events.EventBus
		recorder   *eventRecorder
		equipSvc   *equipment.Service
		historySvc *history.Service
		requests   request.RepositoryAPI
		service    *workflow.Service
		admin      user.Identity
		fieldUser  user.Identity
		busKind    equipment.Descriptor
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		models := []interface{}{&historyDatamodel.Entry{}, &requestDatamodel.PendingRequest{}}
		for _, d := range equipment.All() {
			models = append(models, d.New())
		}
		Expect(db.AutoMigrate(models...)).To(Succeed())

		log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
		bus = events.NewEventBus(log)
		recorder = &eventRecorder{}
		for _, t := range []string{
			events.EventTypeRequestSubmitted,
			events.EventTypeRequestApproved,
			events.EventTypeRequestRejected,
			events.EventTypeRecordCommitted,
		} {
			bus.Subscribe(t, recorder.record)
		}

		historySvc = history.NewService(historyPostgres.NewHistoryRepository(db), log)
		equipSvc = equipment.NewService(equipmentPostgres.NewEquipmentRepository(db), historySvc, log)
		requests = requestPostgres.NewRequestRepository(db)
		service = workflow.NewService(equipSvc, requests, bus, log)

		admin = user.Identity{UserID: 1, Email: "admin@example.com", Name: "Admin", Role: user.RoleAdmin}
		fieldUser = user.Identity{UserID: 2, Email: "field@example.com", Name: "Field", Role: user.RoleUser}
		busKind = equipment.MustLookup(equipment.KindBus)
	})

	waitEvents := func() []string {
		Expect(bus.Wait(ctx)).To(Succeed())
		return recorder.seen()
	}

	historyOf := func() []*history.Entry {
		entries, err := historySvc.List(ctx, history.Filter{})
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	Describe("Submit", func() {
		It("commits admin submissions with a history entry", func() {
			result, err := service.Submit(ctx, admin, "bus", []byte(validBus))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(workflow.OutcomeCommitted))

			stored, err := equipSvc.Get(ctx, busKind, result.Record.Meta().ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Title()).To(Equal("B1"))

			entries := historyOf()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(history.ActionCreate))
			Expect(entries[0].AdminEmail).To(Equal("admin@example.com"))

			Expect(waitEvents()).To(ConsistOf(events.EventTypeRecordCommitted))
		})

		It("queues user submissions without touching the collection", func() {
			result, err := service.Submit(ctx, fieldUser, "bus", []byte(validBus))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(workflow.OutcomePending))
			Expect(result.Request.Status).To(Equal(request.StatusPending))
			Expect(result.Request.SubmittedBy).To(Equal("field@example.com"))
			Expect(string(result.Request.Data)).To(MatchJSON(validBus))

			_, err = equipSvc.List(ctx, busKind, nil)
			Expect(errors.ErrRecordNotFound.Is(err)).To(BeTrue())
			Expect(historyOf()).To(BeEmpty())
			Expect(waitEvents()).To(ConsistOf(events.EventTypeRequestSubmitted))
		})

		It("validates user submissions before queueing them", func() {
			_, err := service.Submit(ctx, fieldUser, "bus", []byte(`{"busName":"B1"}`))
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeMissingFields))

			pending, err := service.ListRequests(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())
		})

		It("rejects unknown data types", func() {
			_, err := service.Submit(ctx, admin, "flux-capacitor", []byte(`{}`))
			Expect(errors.ErrUnknownDataType.Is(err)).To(BeTrue())
		})

		It("rejects unknown attributes", func() {
			_, err := service.Submit(ctx, admin, "bus", []byte(`{"busName":"B1","location":"L1","voltagePower":"400","nominalKV":"400","colour":"red"}`))
			Expect(errors.ErrInvalidDataFormat.Is(err)).To(BeTrue())
		})
	})

	Describe("Decide", func() {
		var pendingID int64

		BeforeEach(func() {
			result, err := service.Submit(ctx, fieldUser, "bus", []byte(validBus))
			Expect(err).NotTo(HaveOccurred())
			pendingID = result.Request.ID
		})

		It("approves: creates the record, keeps the request as approved", func() {
			result, err := service.Decide(ctx, admin, pendingID, workflow.DecisionApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Record.Meta().CreatedBy).To(Equal("field@example.com"))
			Expect(result.Request.Status).To(Equal(request.StatusApproved))

			records, err := equipSvc.List(ctx, busKind, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))

			entries := historyOf()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].AdminEmail).To(Equal("admin@example.com"))

			all, err := service.ListRequests(ctx, "approved")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(*all[0].ReviewedBy).To(Equal("admin@example.com"))

			Expect(waitEvents()).To(ConsistOf(
				events.EventTypeRequestSubmitted,
				events.EventTypeRequestApproved,
				events.EventTypeRecordCommitted,
			))
		})

		It("refuses a second decision", func() {
			_, err := service.Decide(ctx, admin, pendingID, workflow.DecisionApproved)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Decide(ctx, admin, pendingID, workflow.DecisionApproved)
			Expect(errors.ErrRequestAlreadyProcessed.Is(err)).To(BeTrue())
			_, err = service.Decide(ctx, admin, pendingID, workflow.DecisionRejected)
			Expect(errors.ErrRequestAlreadyProcessed.Is(err)).To(BeTrue())

			records, err := equipSvc.List(ctx, busKind, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("rejects: deletes the request and writes nothing", func() {
			_, err := service.Decide(ctx, admin, pendingID, workflow.DecisionRejected)
			Expect(err).NotTo(HaveOccurred())

			_, err = requests.GetByID(ctx, pendingID)
			Expect(errors.ErrRequestNotFound.Is(err)).To(BeTrue())
			_, err = equipSvc.List(ctx, busKind, nil)
			Expect(errors.ErrRecordNotFound.Is(err)).To(BeTrue())
			Expect(historyOf()).To(BeEmpty())
		})

		It("leaves an invalid stored request pending", func() {
			bad := &requestDatamodel.PendingRequest{
				DataType:    "generator",
				Data:        datatypes.JSON(`{"generatorName":"G1"}`),
				SubmittedBy: "field@example.com",
				Status:      string(request.StatusPending),
			}
			Expect(requests.Create(ctx, bad)).To(Succeed())

			_, err := service.Decide(ctx, admin, bad.ID, workflow.DecisionApproved)
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))

			row, err := requests.GetByID(ctx, bad.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Status).To(Equal(string(request.StatusPending)))
		})

		It("returns 404 for an unknown request", func() {
			_, err := service.Decide(ctx, admin, 9999, workflow.DecisionApproved)
			Expect(errors.ErrRequestNotFound.Is(err)).To(BeTrue())
		})
	})

	Describe("Discard", func() {
		It("removes approved requests too", func() {
			result, err := service.Submit(ctx, fieldUser, "bus", []byte(validBus))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Decide(ctx, admin, result.Request.ID, workflow.DecisionApproved)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Discard(ctx, admin, result.Request.ID)).To(Succeed())
			Expect(errors.ErrRequestNotFound.Is(service.Discard(ctx, admin, result.Request.ID))).To(BeTrue())
		})
	})

	Describe("ParseDecision", func() {
		It("accepts both spellings", func() {
			d, err := workflow.ParseDecision("Approve")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(workflow.DecisionApproved))
			d, err = workflow.ParseDecision("rejected")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(workflow.DecisionRejected))
			_, err = workflow.ParseDecision("maybe")
			Expect(err).To(HaveOccurred())
		})
	})
})
