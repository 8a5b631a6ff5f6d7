// Package cache keeps a best-effort redis mirror of appointments. The mirror
// backs the fast path of the slot-conflict check; the relational store stays
// authoritative and the checker consults both.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
)

const (
	appointmentsKey = "turnos:appointments"
	slotKeyFormat   = "turnos:slot:%d:%s:%s"
)

// Mirror implements appointments.Mirror on redis. Each appointment is stored
// as JSON in a hash, and every active appointment holds a slot key that maps
// back to its id.
type Mirror struct {
	rdb *redis.Client
}

// NewMirror wraps a redis client.
func NewMirror(rdb *redis.Client) *Mirror {
	if rdb == nil {
		panic("cache: redis client required")
	}
	return &Mirror{rdb: rdb}
}

// Put records the appointment's latest state. A cancelled appointment
// releases its slot key, but only if it still owns it: a later booking may
// have claimed the same slot.
func (m *Mirror) Put(ctx context.Context, appt appointments.Appointment) error {
	payload, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("cache: marshal appointment: %w", err)
	}
	if err := m.rdb.HSet(ctx, appointmentsKey, appt.ID, payload).Err(); err != nil {
		return fmt.Errorf("cache: store appointment: %w", err)
	}

	slotKey := slotKey(appt.SpecialtyID, appt.Date, appt.Time)
	if appt.Status == appointments.StatusCancelled {
		holder, err := m.rdb.Get(ctx, slotKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cache: read slot holder: %w", err)
		}
		if holder != appt.ID {
			return nil
		}
		if err := m.rdb.Del(ctx, slotKey).Err(); err != nil {
			return fmt.Errorf("cache: release slot: %w", err)
		}
		return nil
	}

	if err := m.rdb.Set(ctx, slotKey, appt.ID, 0).Err(); err != nil {
		return fmt.Errorf("cache: claim slot: %w", err)
	}
	return nil
}

// HeldSlot reports whether the mirror believes the slot is taken.
func (m *Mirror) HeldSlot(ctx context.Context, specialtyID int, date, slot string) (bool, error) {
	_, err := m.rdb.Get(ctx, slotKey(specialtyID, date, slot)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: slot lookup: %w", err)
	}
	return true, nil
}

// Get returns the mirrored appointment, or nil when absent.
func (m *Mirror) Get(ctx context.Context, id string) (*appointments.Appointment, error) {
	payload, err := m.rdb.HGet(ctx, appointmentsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: fetch appointment: %w", err)
	}
	var appt appointments.Appointment
	if err := json.Unmarshal([]byte(payload), &appt); err != nil {
		return nil, fmt.Errorf("cache: unmarshal appointment: %w", err)
	}
	return &appt, nil
}

// Flush drops everything the mirror holds; used by the admin data wipe.
func (m *Mirror) Flush(ctx context.Context) error {
	iter := m.rdb.Scan(ctx, 0, "turnos:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: flush: %w", err)
	}
	return nil
}

func slotKey(specialtyID int, date, slot string) string {
	return fmt.Sprintf(slotKeyFormat, specialtyID, date, slot)
}
