package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// BookingHandler serves the reservation endpoints.  Validation and the
// locked create workflow live in the booking service; the handler only
// decodes requests and maps error kinds to HTTP statuses.
type BookingHandler struct {
    Svc      *booking.Service
    Bookings *repository.BookingRepo
}

func NewBookingHandler(svc *booking.Service, b *repository.BookingRepo) *BookingHandler {
    return &BookingHandler{Svc: svc, Bookings: b}
}

type createBookingReq struct {
    RoomID          uint64  `json:"room_id"`
    BookingDate     string  `json:"booking_date"` // "2006-01-02"
    StartTime       string  `json:"start_time"`   // "HH:MM" or "HH:MM:SS"
    EndTime         string  `json:"end_time"`
    GuestCount      int     `json:"guest_count"`
    SpecialRequests *string `json:"special_requests"`
}

// currentUser extracts the authenticated user id set by the JWT
// middleware.  The claim arrives as a JSON number (float64).
func currentUser(c echo.Context) uint64 {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v)
    case uint64:
        return v
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// statusForKind maps engine error kinds to HTTP statuses.
func statusForKind(k booking.Kind) int {
    switch k {
    case booking.KindInvalidDate, booking.KindInvalidRange,
        booking.KindDurationTooShort, booking.KindOutsideOperatingHours,
        booking.KindCapacityExceeded:
        return http.StatusBadRequest
    case booking.KindSlotConflict, booking.KindAlreadyPaid:
        return http.StatusConflict
    case booking.KindResourceUnavailable, booking.KindNotFound:
        return http.StatusNotFound
    case booking.KindLockTimeout:
        return http.StatusServiceUnavailable
    case booking.KindGateway:
        return http.StatusBadGateway
    }
    return http.StatusInternalServerError
}

// writeEngineError renders an engine error, including the conflicting
// interval on slot conflicts so clients can offer an alternative.
func writeEngineError(c echo.Context, err error) error {
    var be *booking.Error
    if !errors.As(err, &be) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    body := echo.Map{"error": be.Message, "code": string(be.Kind)}
    if be.Conflict != nil {
        body["conflict"] = be.Conflict
    }
    return c.JSON(statusForKind(be.Kind), body)
}

// Create books a room slot for the authenticated user.
func (h *BookingHandler) Create(c echo.Context) error {
    uid := currentUser(c)
    if uid == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    det, err := h.Svc.CreateReservation(c.Request().Context(), booking.CreateParams{
        UserID:          uid,
        RoomID:          req.RoomID,
        Date:            req.BookingDate,
        StartTime:       req.StartTime,
        EndTime:         req.EndTime,
        GuestCount:      req.GuestCount,
        SpecialRequests: req.SpecialRequests,
    })
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusCreated, det)
}

// Get returns one booking.  Customers can only read their own.
func (h *BookingHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    det, err := h.Svc.Booking(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if det == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    }
    role, _ := c.Get("role").(string)
    if role != model.RoleAdmin && det.UserID != currentUser(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, det)
}

// List returns the caller's bookings, or every booking for admins.
func (h *BookingHandler) List(c echo.Context) error {
    ctx := c.Request().Context()
    role, _ := c.Get("role").(string)

    if role == model.RoleAdmin {
        all, err := h.Svc.AllBookings(ctx)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        return c.JSON(http.StatusOK, echo.Map{"bookings": all})
    }

    uid := currentUser(c)
    if uid == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    own, err := h.Bookings.ListDetails(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": own})
}
