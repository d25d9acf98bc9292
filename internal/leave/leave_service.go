package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jenkinson16/leaveease-api/internal/events"
	leaveerrors "github.com/Jenkinson16/leaveease-api/internal/leave/errors"
	"github.com/Jenkinson16/leaveease-api/internal/messaging/kafka"
	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
	"github.com/Jenkinson16/leaveease-api/internal/shared/contextutil"
	"github.com/Jenkinson16/leaveease-api/internal/user"
)

// Statuses that block a new request from occupying the same dates.
// Rejected requests never block resubmission.
var overlapBlockingStatuses = []string{StatusPending, StatusApproved}

type Service interface {
	Create(ctx context.Context, username string, req CreateLeaveRequest) (LeaveResponse, error)
	GetMine(ctx context.Context, username string) ([]LeaveResponse, error)
	GetAll(ctx context.Context) ([]LeaveResponse, error)
	Approve(ctx context.Context, id, adminUsername string) (LeaveResponse, error)
	Reject(ctx context.Context, id, adminUsername string) (LeaveResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	users  user.Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, users user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, users: users, logger: l}
}

// NewServiceWithOutbox additionally records lifecycle events in the
// transactional outbox, to be published to the audit stream by the
// worker process.
func NewServiceWithOutbox(db *sql.DB, repo Repository, users user.Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	s := NewService(db, repo, users, logger...).(*service)
	s.outbox = outbox
	return s
}

func (s *service) Create(ctx context.Context, username string, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave requested",
		zap.String("username", username),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	requester, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		log.Warn("create leave requester lookup failed", zap.String("username", username), zap.Error(err))
		return LeaveResponse{}, err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	l, err := NewLeaveRequest(requester.ID, req.LeaveType, startDate, endDate, req.Reason)
	if err != nil {
		log.Warn("create leave validation failed", zap.String("username", username), zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Serialize concurrent creates for the same user so two overlapping
	// requests cannot both pass the check below.
	if err := qtx.LockUser(ctx, requester.ID); err != nil {
		log.Error("create leave user lock failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	overlap, err := qtx.ExistsOverlap(ctx, requester.ID, startDate, endDate, overlapBlockingStatuses)
	if err != nil {
		log.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("create leave overlap detected",
			zap.String("username", username),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.queueLifecycleEvent(ctx, tx, "leave_created", l.ID, username, StatusPending); err != nil {
		return LeaveResponse{}, err
	}

	rec, err := qtx.FindByID(ctx, l.ID)
	if err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("username", username),
	)
	return mapToResponse(*rec), nil
}

func (s *service) GetMine(ctx context.Context, username string) ([]LeaveResponse, error) {
	requester, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.FindByUser(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(records), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveResponse, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(records), nil
}

func (s *service) Approve(ctx context.Context, id, adminUsername string) (LeaveResponse, error) {
	return s.decide(ctx, id, StatusApproved, adminUsername)
}

func (s *service) Reject(ctx context.Context, id, adminUsername string) (LeaveResponse, error) {
	return s.decide(ctx, id, StatusRejected, adminUsername)
}

// decide is the only path that moves a request out of PENDING. APPROVED
// and REJECTED are terminal; there is no un-approve.
func (s *service) decide(ctx context.Context, id, targetStatus, adminUsername string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("target_status", targetStatus),
		zap.String("admin", adminUsername),
	)

	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}

	if l.Status != StatusPending {
		log.Warn("decide leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
			zap.String("to_status", targetStatus),
		)
		return LeaveResponse{}, leaveerrors.InvalidTransition(l.Status)
	}

	admin, err := s.users.FindByUsername(ctx, adminUsername)
	if err != nil {
		log.Warn("decide leave admin lookup failed", zap.String("admin", adminUsername), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := qtx.UpdateDecision(ctx, leaveID, targetStatus, admin.ID); err != nil {
		log.Error("decide leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	eventType := "leave_approved"
	if targetStatus == StatusRejected {
		eventType = "leave_rejected"
	}
	if err := s.queueLifecycleEvent(ctx, tx, eventType, leaveID, adminUsername, targetStatus); err != nil {
		return LeaveResponse{}, err
	}

	rec, err := qtx.FindByID(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("decide leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
	)
	return mapToResponse(*rec), nil
}

func (s *service) queueLifecycleEvent(ctx context.Context, tx *sql.Tx, eventType string, leaveID uuid.UUID, actor, status string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    leaveID.String(),
		Actor:      actor,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   leaveID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("queue lifecycle event failed",
			zap.String("leave_id", leaveID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return apperror.Wrap(err, apperror.CodeInternalError, "Could not record lifecycle event", http.StatusInternalServerError)
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(rec Record) LeaveResponse {
	return LeaveResponse{
		ID:         rec.ID.String(),
		Username:   rec.Username,
		LeaveType:  rec.LeaveType,
		StartDate:  rec.StartDate.Format("2006-01-02"),
		EndDate:    rec.EndDate.Format("2006-01-02"),
		Reason:     rec.Reason,
		Status:     rec.Status,
		ApprovedBy: rec.ApprovedByUsername,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(records []Record) []LeaveResponse {
	resp := make([]LeaveResponse, len(records))
	for i, rec := range records {
		resp[i] = mapToResponse(rec)
	}
	return resp
}
