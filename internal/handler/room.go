package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/repository"
)

// RoomHandler serves the room catalog reads.  These endpoints are
// unauthenticated and sit behind the Redis response cache.
type RoomHandler struct {
    Rooms *repository.RoomRepo
}

func NewRoomHandler(r *repository.RoomRepo) *RoomHandler { return &RoomHandler{Rooms: r} }

// List returns all rooms with their pricing and operating hours.
func (h *RoomHandler) List(c echo.Context) error {
    rooms, err := h.Rooms.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Get returns one room by id.
func (h *RoomHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    room, err := h.Rooms.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if room == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    return c.JSON(http.StatusOK, room)
}
