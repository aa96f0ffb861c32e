package user_test

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	coreUser "github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/mail"
	"github.com/frahmantamala/power-data-portal/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type MockRepository struct {
	mu   sync.Mutex
	rows map[int64]*user.Row
}

func NewMockRepository(rows ...*user.Row) *MockRepository {
	m := &MockRepository{rows: make(map[int64]*user.Row)}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *MockRepository) List(_ context.Context, status string) ([]*user.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*user.Row{}
	for _, r := range m.rows {
		if status == "" || r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64) (*user.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRepository) Update(_ context.Context, id int64, changes user.Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	if changes.Role != nil {
		r.Role = string(*changes.Role)
	}
	if changes.Status != nil {
		r.Status = string(*changes.Status)
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return errors.ErrUserNotFound
	}
	delete(m.rows, id)
	return nil
}

func strPtr(s string) *string { return &s }

var _ = Describe("User admin service", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		mailer  *mail.LogMailer
		service *user.Service
		admin   coreUser.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
		repo = NewMockRepository(
			&user.Row{ID: 1, Name: "Admin", Email: "admin@example.com", Role: "admin", Status: "active"},
			&user.Row{ID: 2, Name: "Pending", Email: "pending@example.com", Role: "user", Status: "pending"},
			&user.Row{ID: 3, Name: "Active", Email: "active@example.com", Role: "user", Status: "active"},
		)
		mailer = mail.NewLogMailer(logger)
		service = user.NewService(repo, mailer, logger)
		admin = coreUser.Identity{UserID: 1, Email: "admin@example.com", Name: "Admin", Role: coreUser.RoleAdmin}
	})

	Describe("List", func() {
		It("filters by status", func() {
			accounts, err := service.List(ctx, "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(1))
			Expect(accounts[0].Email).To(Equal("pending@example.com"))
		})

		It("returns everyone without a filter", func() {
			accounts, err := service.List(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(3))
		})

		It("rejects an unknown status", func() {
			_, err := service.List(ctx, "banned")
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Update", func() {
		It("accepts a pending registration and mails the user", func() {
			account, err := service.Update(ctx, admin, 2, user.UpdateUserDTO{Status: strPtr("active")})
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Status).To(Equal(coreUser.StatusActive))

			sent := mailer.Sent()
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].To).To(ConsistOf("pending@example.com"))
		})

		It("promotes a user to admin without mailing", func() {
			account, err := service.Update(ctx, admin, 3, user.UpdateUserDTO{Role: strPtr("admin")})
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Role).To(Equal(coreUser.RoleAdmin))
			Expect(mailer.Sent()).To(BeEmpty())
		})

		It("requires at least one change", func() {
			_, err := service.Update(ctx, admin, 3, user.UpdateUserDTO{})
			Expect(errors.NewValidationError("", errors.ErrCodeMissingFields).Is(err)).To(BeTrue())
		})

		It("rejects unknown roles", func() {
			_, err := service.Update(ctx, admin, 3, user.UpdateUserDTO{Role: strPtr("root")})
			Expect(err).To(HaveOccurred())
		})

		It("refuses to edit the caller's own account", func() {
			_, err := service.Update(ctx, admin, 1, user.UpdateUserDTO{Status: strPtr("disabled")})
			Expect(err).To(HaveOccurred())
			row, _ := repo.GetByID(ctx, 1)
			Expect(row.Status).To(Equal("active"))
		})

		It("returns 404 for a missing user", func() {
			_, err := service.Update(ctx, admin, 99, user.UpdateUserDTO{Status: strPtr("active")})
			Expect(errors.ErrUserNotFound.Is(err)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("declines a registration", func() {
			Expect(service.Delete(ctx, admin, 2)).To(Succeed())
			_, err := repo.GetByID(ctx, 2)
			Expect(errors.ErrUserNotFound.Is(err)).To(BeTrue())
		})

		It("returns 404 for a missing user", func() {
			Expect(errors.ErrUserNotFound.Is(service.Delete(ctx, admin, 99))).To(BeTrue())
		})

		It("refuses self deletion", func() {
			Expect(service.Delete(ctx, admin, 1)).NotTo(Succeed())
		})
	})

	It("lists active admin emails", func() {
		emails, err := service.AdminEmails(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(emails).To(ConsistOf("admin@example.com"))
	})
})
