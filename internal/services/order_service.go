package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/summer-camp-school/camp-service/internal/config"
	"github.com/summer-camp-school/camp-service/internal/events"
	"github.com/summer-camp-school/camp-service/internal/metrics"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// OrderDeps groups the collaborators of the payment workflow
type OrderDeps struct {
	Repo      repositories.Repository
	Gateway   payment.Gateway
	Publisher events.Publisher
	Metrics   metrics.Recorder
	Logger    *slog.Logger
	Validator *validator.Validator
	Payment   config.PaymentConfig
	Now       func() time.Time
}

type orderService struct {
	repo      repositories.Repository
	gateway   payment.Gateway
	publisher events.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	validator *validator.Validator
	cfg       config.PaymentConfig
	now       func() time.Time
}

func NewOrderService(deps OrderDeps) OrderService {
	s := &orderService{
		repo:      deps.Repo,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		validator: deps.Validator,
		cfg:       deps.Payment,
		now:       deps.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Initiate opens a gateway session first and only writes the pending order
// once the gateway has answered, so a gateway failure leaves nothing behind.
func (s *orderService) Initiate(ctx context.Context, courseID string, req *InitiateOrderRequest) (*InitiateResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("class", courseID)
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if class.AvailableSeats <= 0 {
		return nil, NewConflictError("class", courseID, ErrNoSeatsAvailable)
	}

	tranID := uuid.NewString()
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	logger := s.logger.With("tran_id", tranID, "course_id", courseID)

	session, err := s.gateway.InitSession(ctx, &payment.SessionRequest{
		TranID:           tranID,
		Amount:           class.Price,
		Currency:         currency,
		ProductName:      class.ClassName,
		ProductID:        class.ID,
		CustomerName:     req.Name,
		CustomerEmail:    req.Email,
		CustomerPhone:    req.Phone,
		CustomerAddress:  req.Address,
		CustomerPostcode: req.PostCode,
		SuccessURL:       s.cfg.ServerBaseURL + "/payment/success/" + tranID,
		FailURL:          s.cfg.ServerBaseURL + "/payment/failed/" + tranID,
		CancelURL:        s.cfg.ServerBaseURL + "/payment/failed/" + tranID,
		IPNURL:           s.cfg.ServerBaseURL + "/payment/ipn",
	})
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, payment.ErrGatewayRejected) {
			reason = "rejected"
		}
		s.metrics.RecordGatewayError(reason)
		logger.Error("Payment gateway session failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	order := &models.Order{
		TranID:       tranID,
		CourseID:     class.ID,
		ClassName:    class.ClassName,
		StudentEmail: req.Email,
		StudentName:  req.Name,
		Price:        class.Price,
		Currency:     currency,
		PaidStatus:   false,
		Status:       models.OrderPending,
	}
	if err := s.repo.Order().Create(ctx, order); err != nil {
		logger.Error("Failed to persist pending order", "error", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.RecordOrderInitiated()
	s.publish(ctx, events.OrderInitiated, order, "")
	logger.Info("Order initiated", "email", req.Email, "price", class.Price)

	return &InitiateResponse{URL: session.RedirectURL, TranID: tranID}, nil
}

// HandleSuccess runs the whole paid transition in one transaction: flip the
// order, take one seat, clear the cart entry. A replay finds the order
// already paid and changes nothing.
func (s *orderService) HandleSuccess(ctx context.Context, tranID string) (string, error) {
	logger := s.logger.With("tran_id", tranID)

	var (
		order       *models.Order
		alreadyPaid bool
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		changed, err := tx.Order().MarkPaid(ctx, tranID, s.now().UTC())
		if err != nil {
			return err
		}

		order, err = tx.Order().GetByTranID(ctx, tranID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("order", tranID)
			}
			return err
		}

		if !changed {
			alreadyPaid = true
			return nil
		}

		reserved, err := tx.Class().ReserveSeat(ctx, order.CourseID)
		if err != nil {
			return err
		}
		if !reserved {
			return NewConflictError("class", order.CourseID, ErrNoSeatsAvailable)
		}

		if _, err := tx.Cart().DeleteByCourseAndEmail(ctx, order.CourseID, order.StudentEmail); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case isNotFound(err):
			logger.Warn("Success callback for unknown order")
			return "", err
		case errors.Is(err, ErrNoSeatsAvailable):
			s.metrics.RecordSeatConflict()
			logger.Warn("Success callback rejected, class is full", "course_id", order.CourseID)
			return "", err
		}
		logger.Error("Success callback failed", "error", err)
		return "", fmt.Errorf("failed to apply payment: %w", err)
	}

	redirect := withQuery(s.cfg.SuccessURL, "tranId", tranID)
	if alreadyPaid {
		logger.Info("Success callback replayed, order already paid")
		return redirect, nil
	}

	// listings cached outside the transaction may have been refilled mid-flight
	s.repo.Class().InvalidateListings(ctx)

	s.metrics.RecordOrderPaid()
	s.publish(ctx, events.OrderPaid, order, "")
	logger.Info("Order paid", "course_id", order.CourseID, "email", order.StudentEmail)

	return redirect, nil
}

// HandleFailure removes a pending order. A missing order is treated as
// already handled; a paid order cannot be failed.
func (s *orderService) HandleFailure(ctx context.Context, tranID string) (string, error) {
	logger := s.logger.With("tran_id", tranID)
	redirect := withQuery(s.cfg.FailURL, "tranId", tranID)

	order, err := s.repo.Order().GetByTranID(ctx, tranID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			logger.Info("Failure callback for missing order, nothing to do")
			return redirect, nil
		}
		return "", fmt.Errorf("failed to load order: %w", err)
	}

	deleted, err := s.repo.Order().DeletePending(ctx, tranID)
	if err != nil {
		return "", fmt.Errorf("failed to delete order: %w", err)
	}
	if !deleted {
		if order.PaidStatus {
			logger.Warn("Failure callback for a paid order")
			return "", NewConflictError("order", tranID, nil)
		}
		// paid or deleted between the read and the delete
		current, err := s.repo.Order().GetByTranID(ctx, tranID)
		if err == nil && current.PaidStatus {
			return "", NewConflictError("order", tranID, nil)
		}
		return redirect, nil
	}

	s.metrics.RecordOrderFailed()
	s.publish(ctx, events.OrderFailed, order, "payment failed or cancelled")
	logger.Info("Pending order removed", "course_id", order.CourseID)

	return redirect, nil
}

// HandleNotification settles an order from the gateway's IPN. Only a
// VALID/VALIDATED status may take the paid transition; every other status
// takes the failure transition.
func (s *orderService) HandleNotification(ctx context.Context, n payment.Notification) error {
	if strings.TrimSpace(n.TranID) == "" {
		return validator.ValidationErrors{{Field: "tran_id", Message: "is required", Rule: "required"}}
	}
	s.logger.Info("Payment notification received", "tran_id", n.TranID, "status", n.Status)

	if n.Paid() {
		_, err := s.HandleSuccess(ctx, n.TranID)
		return err
	}
	_, err := s.HandleFailure(ctx, n.TranID)
	return err
}

func (s *orderService) ListByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	orders, err := s.repo.Order().ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// publish never fails the request; the order state is already committed
func (s *orderService) publish(ctx context.Context, eventType events.EventType, order *models.Order, reason string) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(eventType, events.OrderEventData{
		TranID:       order.TranID,
		CourseID:     order.CourseID,
		ClassName:    order.ClassName,
		StudentEmail: order.StudentEmail,
		Price:        order.Price,
		Currency:     order.Currency,
		Reason:       reason,
	})
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish order event", "type", eventType, "tran_id", order.TranID, "error", err)
	}
}
