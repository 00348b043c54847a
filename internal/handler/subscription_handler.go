package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"subtrackr/internal/errors"
	"subtrackr/internal/model"
	"subtrackr/internal/service"
)

const errCreatingSubscription = "error creating subscription"

// SubscriptionHandler handles the /subscriptions endpoints.
type SubscriptionHandler struct {
	svc service.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(svc service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// CreateSubscriptionRequest represents a new subscription.
type CreateSubscriptionRequest struct {
	SubscriptionName string           `json:"subscription_name" validate:"required"`
	Price            *decimal.Decimal `json:"price" validate:"required" swaggertype:"number"`
	RenewalDate      string           `json:"renewal_date" validate:"required" example:"2025-01-01"`
	Category         string           `json:"category"`
	Notes            string           `json:"notes"`
}

// UpdateSubscriptionRequest carries the fields to change. The owner is
// not updatable and any user_id in the body is ignored.
type UpdateSubscriptionRequest struct {
	SubscriptionName *string          `json:"subscription_name" validate:"omitnil,min=1"`
	Price            *decimal.Decimal `json:"price" swaggertype:"number"`
	RenewalDate      *string          `json:"renewal_date" example:"2025-01-01"`
	Category         *string          `json:"category"`
	Notes            *string          `json:"notes"`
}

// List godoc
// @Summary List the caller's subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SubscriptionListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	subs, err := h.svc.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubscriptionListResponse{
		Success: true,
		UserID:  id.UserID,
		Data:    subs,
		Count:   len(subs),
	})
}

// Create godoc
// @Summary Create a subscription owned by the caller
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSubscriptionRequest true "Subscription"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var req CreateSubscriptionRequest
	if err := bindAndValidate(c, &req, errCreatingSubscription); err != nil {
		return err
	}
	renewal, err := model.ParseRenewalDate(req.RenewalDate)
	if err != nil {
		return errors.NewValidationError(errCreatingSubscription, err)
	}

	sub, err := h.svc.Create(c.Request().Context(), id, &model.Subscription{
		SubscriptionName: req.SubscriptionName,
		Price:            *req.Price,
		RenewalDate:      renewal,
		Category:         req.Category,
		Notes:            req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, SubscriptionResponse{Success: true, Data: sub})
}

// Update godoc
// @Summary Update one of the caller's subscriptions
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param request body UpdateSubscriptionRequest true "Fields to change"
// @Success 200 {object} SubscriptionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /subscriptions/{id} [put]
func (h *SubscriptionHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	subID, err := subscriptionID(c)
	if err != nil {
		return err
	}

	var req UpdateSubscriptionRequest
	if err := bindAndValidate(c, &req, "validation failed"); err != nil {
		return err
	}
	changes, err := req.changes()
	if err != nil {
		return err
	}

	sub, err := h.svc.Update(c.Request().Context(), id, subID, changes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubscriptionResponse{Success: true, Data: sub})
}

// Delete godoc
// @Summary Delete one of the caller's subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} SubscriptionResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /subscriptions/{id} [delete]
func (h *SubscriptionHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	subID, err := subscriptionID(c)
	if err != nil {
		return err
	}

	sub, err := h.svc.Delete(c.Request().Context(), id, subID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubscriptionResponse{Success: true, Data: sub})
}

// subscriptionID parses the path id. A malformed id cannot name any
// record, so it is reported as not found.
func subscriptionID(c echo.Context) (uuid.UUID, error) {
	subID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, errors.ErrSubscriptionNotFound
	}
	return subID, nil
}

func (r UpdateSubscriptionRequest) changes() (model.SubscriptionChanges, error) {
	changes := model.SubscriptionChanges{
		SubscriptionName: r.SubscriptionName,
		Price:            r.Price,
		Category:         r.Category,
		Notes:            r.Notes,
	}
	if r.RenewalDate != nil {
		renewal, err := model.ParseRenewalDate(*r.RenewalDate)
		if err != nil {
			return changes, errors.NewValidationError("validation failed", err)
		}
		changes.RenewalDate = &renewal
	}
	return changes, nil
}
