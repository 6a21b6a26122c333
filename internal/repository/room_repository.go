package repository

import (
    "context"
    "database/sql"
    "encoding/json"

    "github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo reads the 'rooms' table.  Rooms are seed data in this
// service; the write path only ever locks a row, never mutates it.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomColumns = `id, name, description, price_per_slot, capacity, amenities,
 is_available, slot_duration_minutes, opening_time, closing_time, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
    var (
        r         model.Room
        amenities sql.NullString
    )
    err := row.Scan(&r.ID, &r.Name, &r.Description, &r.PricePerSlot, &r.Capacity,
        &amenities, &r.IsAvailable, &r.SlotDurationMinutes,
        &r.OpeningTime, &r.ClosingTime, &r.CreatedAt, &r.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if amenities.Valid && amenities.String != "" {
        if err := json.Unmarshal([]byte(amenities.String), &r.Amenities); err != nil {
            return nil, err
        }
    }
    return &r, nil
}

// List returns all rooms ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT "+roomColumns+" FROM rooms ORDER BY name, id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Room
    for rows.Next() {
        rm, err := scanRoom(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rm)
    }
    return out, rows.Err()
}

// GetByID fetches one room, or (nil, nil) when it does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    rm, err := scanRoom(r.DB.QueryRowContext(ctx,
        "SELECT "+roomColumns+" FROM rooms WHERE id=? LIMIT 1", id))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return rm, err
}

// GetForUpdateTx fetches one room inside tx with an exclusive row lock.
// Every booking mutation for a room serializes on this lock.  Lock wait
// timeouts and deadlocks surface as the engine's lock-timeout error;
// a missing room returns (nil, nil).
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
    rm, err := scanRoom(tx.QueryRowContext(ctx,
        "SELECT "+roomColumns+" FROM rooms WHERE id=? FOR UPDATE", id))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, mapLockError(err)
    }
    return rm, nil
}
