package leave

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	leaveerrors "github.com/Jenkinson16/leaveease-api/internal/leave/errors"
	"github.com/Jenkinson16/leaveease-api/internal/messaging/kafka"
	"github.com/Jenkinson16/leaveease-api/internal/user"
	usererrors "github.com/Jenkinson16/leaveease-api/internal/user/errors"
)

type fakeRepo struct {
	withTxFn            func(tx *sql.Tx) Repository
	createFn            func(ctx context.Context, l *LeaveRequest) error
	findByIDFn          func(ctx context.Context, id uuid.UUID) (*Record, error)
	findByIDForUpdateFn func(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	findByUserFn        func(ctx context.Context, userID uuid.UUID) ([]Record, error)
	findAllFn           func(ctx context.Context) ([]Record, error)
	updateDecisionFn    func(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error
	existsOverlapFn     func(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error)
	lockUserFn          func(ctx context.Context, userID uuid.UUID) error
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}
func (f *fakeRepo) Create(ctx context.Context, l *LeaveRequest) error { return f.createFn(ctx, l) }
func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	return f.findByIDForUpdateFn(ctx, id)
}
func (f *fakeRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	return f.findByUserFn(ctx, userID)
}
func (f *fakeRepo) FindAll(ctx context.Context) ([]Record, error) { return f.findAllFn(ctx) }
func (f *fakeRepo) UpdateDecision(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error {
	return f.updateDecisionFn(ctx, id, status, approvedByID)
}
func (f *fakeRepo) ExistsOverlap(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
	return f.existsOverlapFn(ctx, userID, startDate, endDate, statuses)
}
func (f *fakeRepo) LockUser(ctx context.Context, userID uuid.UUID) error {
	if f.lockUserFn != nil {
		return f.lockUserFn(ctx, userID)
	}
	return nil
}

type fakeUserRepo struct {
	createFn           func(ctx context.Context, u *user.User) error
	findByUsernameFn   func(ctx context.Context, username string) (*user.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return f.createFn(ctx, u) }
func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return f.findByUsernameFn(ctx, username)
}
func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return f.existsByUsernameFn(ctx, username)
}
func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.existsByEmailFn(ctx, email)
}

type fakeOutbox struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error              { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, r string) error { return nil }

func userRepoWith(u *user.User) *fakeUserRepo {
	return &fakeUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*user.User, error) {
			if u != nil && username == u.Username {
				return u, nil
			}
			return nil, usererrors.ErrUserNotFound
		},
	}
}

func date(v string) time.Time {
	t, _ := time.Parse("2006-01-02", v)
	return t
}

func TestService_Create(t *testing.T) {
	employee := &user.User{ID: uuid.New(), Username: "alice", Role: "EMPLOYEE"}
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		var saved LeaveRequest
		var checkedStatuses []string
		repo := &fakeRepo{}
		repo.existsOverlapFn = func(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
			checkedStatuses = statuses
			return false, nil
		}
		repo.createFn = func(ctx context.Context, l *LeaveRequest) error { saved = *l; return nil }
		repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*Record, error) {
			return &Record{
				ID:        saved.ID,
				Username:  employee.Username,
				LeaveType: saved.LeaveType,
				StartDate: saved.StartDate,
				EndDate:   saved.EndDate,
				Reason:    saved.Reason,
				Status:    saved.Status,
				CreatedAt: time.Now(),
			}, nil
		}

		svc := NewService(db, repo, userRepoWith(employee))

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-05",
			Reason:    "family trip",
		})

		assert.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, StatusPending, resp.Status)
		assert.Equal(t, "2026-09-01", resp.StartDate)
		assert.Equal(t, "2026-09-05", resp.EndDate)
		assert.Nil(t, resp.ApprovedBy)
		assert.Equal(t, employee.ID, saved.UserID)
		assert.Equal(t, []string{StatusPending, StatusApproved}, checkedStatuses)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("start date equal to end date is rejected before any write", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{
			createFn: func(ctx context.Context, l *LeaveRequest) error {
				t.Fatal("create must not be called")
				return nil
			},
		}

		svc := NewService(db, repo, userRepoWith(employee))
		_, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "SICK",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-01",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		svc := NewService(db, &fakeRepo{}, userRepoWith(employee))
		_, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-09-10",
			EndDate:   "2026-09-05",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		svc := NewService(db, &fakeRepo{}, userRepoWith(employee))
		_, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "01-09-2026",
			EndDate:   "2026-09-05",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("overlap with pending or approved request conflicts", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.existsOverlapFn = func(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
			return true, nil
		}
		repo.createFn = func(ctx context.Context, l *LeaveRequest) error {
			t.Fatal("create must not be called on overlap")
			return nil
		}

		svc := NewService(db, repo, userRepoWith(employee))

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-05",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejected range can be resubmitted", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		// The store holds a REJECTED request over the exact same dates.
		rejected := LeaveRequest{
			ID:        uuid.New(),
			UserID:    employee.ID,
			LeaveType: "ANNUAL",
			StartDate: date("2026-09-01"),
			EndDate:   date("2026-09-05"),
			Status:    StatusRejected,
		}

		var saved LeaveRequest
		repo := &fakeRepo{}
		repo.existsOverlapFn = func(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
			blocking := false
			for _, s := range statuses {
				if rejected.Status == s &&
					!rejected.StartDate.After(endDate) && !rejected.EndDate.Before(startDate) {
					blocking = true
				}
			}
			return blocking, nil
		}
		repo.createFn = func(ctx context.Context, l *LeaveRequest) error { saved = *l; return nil }
		repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*Record, error) {
			return &Record{
				ID:        saved.ID,
				Username:  employee.Username,
				LeaveType: saved.LeaveType,
				StartDate: saved.StartDate,
				EndDate:   saved.EndDate,
				Status:    saved.Status,
				CreatedAt: time.Now(),
			}, nil
		}

		svc := NewService(db, repo, userRepoWith(employee))

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-05",
		})

		assert.NoError(t, err)
		assert.Equal(t, StatusPending, resp.Status)
		assert.NotEqual(t, rejected.ID, saved.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown requester", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		svc := NewService(db, &fakeRepo{}, userRepoWith(nil))
		_, err := svc.Create(ctx, "ghost", CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-05",
		})

		assert.ErrorIs(t, err, usererrors.ErrUserNotFound)
	})

	t.Run("lifecycle event is queued in the same transaction", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.existsOverlapFn = func(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
			return false, nil
		}
		repo.createFn = func(ctx context.Context, l *LeaveRequest) error { return nil }
		repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*Record, error) {
			return &Record{ID: id, Username: "alice", Status: StatusPending}, nil
		}

		outbox := &fakeOutbox{}
		svc := NewServiceWithOutbox(db, repo, userRepoWith(employee), outbox)

		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.Create(ctx, "alice", CreateLeaveRequest{
			LeaveType: "CASUAL",
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
		})

		assert.NoError(t, err)
		assert.Len(t, outbox.created, 1)
		assert.Equal(t, "leave_created", outbox.created[0].EventType)
		assert.Equal(t, "leave.request.lifecycle.v1", outbox.created[0].Topic)
		assert.Equal(t, kafka.OutboxStatusPending, outbox.created[0].Status)
	})
}

func TestService_Decide(t *testing.T) {
	admin := &user.User{ID: uuid.New(), Username: "boss", Role: "ADMIN"}
	leaveID := uuid.New()
	ctx := context.Background()

	pendingLeave := func() *LeaveRequest {
		return &LeaveRequest{
			ID:        leaveID,
			UserID:    uuid.New(),
			LeaveType: "ANNUAL",
			StartDate: date("2026-09-01"),
			EndDate:   date("2026-09-05"),
			Status:    StatusPending,
		}
	}

	t.Run("approve pending request", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		var decidedStatus string
		var decidedBy uuid.UUID
		approver := admin.Username

		repo := &fakeRepo{}
		repo.findByIDForUpdateFn = func(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
			return pendingLeave(), nil
		}
		repo.updateDecisionFn = func(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error {
			decidedStatus = status
			decidedBy = approvedByID
			return nil
		}
		repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*Record, error) {
			return &Record{
				ID:                 id,
				Username:           "alice",
				Status:             decidedStatus,
				ApprovedByUsername: &approver,
			}, nil
		}

		svc := NewService(db, repo, userRepoWith(admin))

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.Approve(ctx, leaveID.String(), "boss")

		assert.NoError(t, err)
		assert.Equal(t, StatusApproved, resp.Status)
		assert.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, "boss", *resp.ApprovedBy)
		assert.Equal(t, admin.ID, decidedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reject pending request", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		var decidedStatus string
		repo := &fakeRepo{}
		repo.findByIDForUpdateFn = func(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
			return pendingLeave(), nil
		}
		repo.updateDecisionFn = func(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error {
			decidedStatus = status
			return nil
		}
		repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*Record, error) {
			return &Record{ID: id, Username: "alice", Status: decidedStatus}, nil
		}

		svc := NewService(db, repo, userRepoWith(admin))

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.Reject(ctx, leaveID.String(), "boss")

		assert.NoError(t, err)
		assert.Equal(t, StatusRejected, resp.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already approved request cannot be decided again", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.findByIDForUpdateFn = func(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
			l := pendingLeave()
			l.Status = StatusApproved
			return l, nil
		}
		repo.updateDecisionFn = func(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error {
			t.Fatal("update must not run for a non-pending request")
			return nil
		}

		svc := NewService(db, repo, userRepoWith(admin))

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.Reject(ctx, leaveID.String(), "boss")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), StatusApproved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown leave id", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.findByIDForUpdateFn = func(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
			return nil, leaveerrors.ErrLeaveNotFound
		}

		svc := NewService(db, repo, userRepoWith(admin))

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.Approve(ctx, uuid.NewString(), "boss")

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("malformed leave id", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		svc := NewService(db, &fakeRepo{}, userRepoWith(admin))
		_, err := svc.Approve(ctx, "not-a-uuid", "boss")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestService_GetMine(t *testing.T) {
	employee := &user.User{ID: uuid.New(), Username: "alice", Role: "EMPLOYEE"}
	approver := "boss"

	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{}
	repo.findByUserFn = func(ctx context.Context, userID uuid.UUID) ([]Record, error) {
		assert.Equal(t, employee.ID, userID)
		return []Record{
			{
				ID:                 uuid.New(),
				Username:           "alice",
				LeaveType:          "ANNUAL",
				StartDate:          date("2026-09-01"),
				EndDate:            date("2026-09-05"),
				Status:             StatusApproved,
				ApprovedByUsername: &approver,
				CreatedAt:          time.Now(),
			},
			{
				ID:        uuid.New(),
				Username:  "alice",
				LeaveType: "SICK",
				StartDate: date("2026-08-01"),
				EndDate:   date("2026-08-02"),
				Status:    StatusPending,
				CreatedAt: time.Now(),
			},
		}, nil
	}

	svc := NewService(db, repo, userRepoWith(employee))
	resp, err := svc.GetMine(context.Background(), "alice")

	assert.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, "2026-09-01", resp[0].StartDate)
	assert.Equal(t, "boss", *resp[0].ApprovedBy)
	assert.Nil(t, resp[1].ApprovedBy)
}

func TestService_GetAll(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{}
	repo.findAllFn = func(ctx context.Context) ([]Record, error) {
		return []Record{
			{ID: uuid.New(), Username: "alice", Status: StatusPending, CreatedAt: time.Now()},
			{ID: uuid.New(), Username: "bob", Status: StatusRejected, CreatedAt: time.Now()},
		}, nil
	}

	svc := NewService(db, repo, &fakeUserRepo{})
	resp, err := svc.GetAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, "alice", resp[0].Username)
	assert.Equal(t, "bob", resp[1].Username)
}
