package handlers

import (
	"errors"
	"strconv"

	"github.com/anjiri1684/appointment_reminder/database"
	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingHandler struct {
	store *database.BookingStore
	log   zerolog.Logger
}

func NewBookingHandler(store *database.BookingStore, log zerolog.Logger) *BookingHandler {
	return &BookingHandler{store: store, log: log}
}

type CreateBookingRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Phone string  `json:"phone" validate:"required,min=7,max=32"`
	Email string  `json:"email" validate:"omitempty,email"`
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Slot  string  `json:"slot" validate:"required,datetime=15:04"`
	Notes *string `json:"notes"`
}

type UpdateBookingRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone  *string `json:"phone" validate:"omitempty,min=7,max=32"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Date   *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Slot   *string `json:"slot" validate:"omitempty,datetime=15:04"`
	Status *string `json:"status" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Notes  *string `json:"notes"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking := models.Booking{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Date:  req.Date,
		Slot:  req.Slot,
		Notes: req.Notes,
	}
	if err := h.store.Create(c.UserContext(), &booking); err != nil {
		h.log.Error().Err(err).Msg("Failed to create booking")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}

	bookings, total, err := h.store.List(c.UserContext(), status, page, pageSize)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list bookings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}

	return c.JSON(fiber.Map{
		"data":      bookings,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	booking, err := h.store.Get(c.UserContext(), id)
	if err != nil {
		return h.storeError(c, err, "Failed to fetch booking")
	}
	return c.JSON(booking)
}

func (h *BookingHandler) UpdateBooking(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req UpdateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	changes := database.BookingChanges{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Date:  req.Date,
		Slot:  req.Slot,
		Notes: req.Notes,
	}
	if req.Status != nil {
		s := models.BookingStatus(*req.Status)
		changes.Status = &s
	}

	booking, err := h.store.Update(c.UserContext(), id, changes)
	if err != nil {
		return h.storeError(c, err, "Failed to update booking")
	}
	return c.JSON(booking)
}

func (h *BookingHandler) storeError(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if errors.Is(err, database.ErrAlreadyNotified) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Booking already notified; create a new booking to reschedule"})
	}
	h.log.Error().Err(err).Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}
