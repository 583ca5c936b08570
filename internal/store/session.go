package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sigilante/pinochle"
	"go.uber.org/zap"
)

// Snapshot is the persisted part of a shell session.
type Snapshot struct {
	ID      string
	Subject pinochle.Noun
	Vars    map[string]pinochle.Noun
	SavedAt time.Time
}

// SaveSession stores snap under name and returns the session id. Saving over
// an existing name keeps its id.
func (me *Store) SaveSession(ctx context.Context, name string, snap Snapshot) (string, error) {
	if name == "" {
		return "", errors.New("save session: empty name")
	}
	if snap.Subject == nil {
		snap.Subject = pinochle.Atom(0)
	}
	tx, err := me.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save session %s: %w", name, err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
	} else if err != nil {
		return "", fmt.Errorf("save session %s: %w", name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, subject, vars, saved_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET subject = excluded.subject, vars = excluded.vars, saved_at = excluded.saved_at`,
		id, name, pinochle.Jam(snap.Subject), pinochle.Jam(EncodeVars(snap.Vars)), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("save session %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save session %s: %w", name, err)
	}
	me.log.Info("session saved", zap.String("name", name), zap.String("id", id), zap.Int("vars", len(snap.Vars)))
	return id, nil
}

func (me *Store) LoadSession(ctx context.Context, name string) (Snapshot, error) {
	var snap Snapshot
	var subject, vars []byte
	var saved int64
	err := me.db.QueryRowContext(ctx, `SELECT id, subject, vars, saved_at FROM sessions WHERE name = ?`, name).
		Scan(&snap.ID, &subject, &vars, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("session %s: %w", name, ErrNotFound)
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", name, err)
	}
	if snap.Subject, err = pinochle.Cue(subject); err != nil {
		return Snapshot{}, fmt.Errorf("session %s subject: %w", name, err)
	}
	list, err := pinochle.Cue(vars)
	if err != nil {
		return Snapshot{}, fmt.Errorf("session %s vars: %w", name, err)
	}
	if snap.Vars, err = DecodeVars(list); err != nil {
		return Snapshot{}, fmt.Errorf("session %s vars: %w", name, err)
	}
	snap.SavedAt = time.UnixMilli(saved)
	me.log.Info("session loaded", zap.String("name", name), zap.String("id", snap.ID))
	return snap, nil
}

// EncodeVars is the null-terminated list [[name value] ... 0], names as cords
// in sorted order.
func EncodeVars(vars map[string]pinochle.Noun) pinochle.Noun {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)
	var list pinochle.Noun = pinochle.Atom(0)
	for i := len(names) - 1; i >= 0; i-- {
		list = pinochle.Cons(pinochle.Cons(pinochle.Cord(names[i]), vars[names[i]]), list)
	}
	return list
}

func DecodeVars(list pinochle.Noun) (map[string]pinochle.Noun, error) {
	vars := map[string]pinochle.Noun{}
	for {
		cell, ok := list.(*pinochle.NounCell)
		if !ok {
			if a := list.(pinochle.NounAtom); !a.IsZero() {
				return nil, fmt.Errorf("list ends in %s, not 0", a)
			}
			return vars, nil
		}
		item, ok := cell.Head.(*pinochle.NounCell)
		if !ok {
			return nil, fmt.Errorf("list item %s is not [name value]", cell.Head)
		}
		name, ok := item.Head.(pinochle.NounAtom)
		if !ok || name.IsZero() {
			return nil, fmt.Errorf("variable name %s is not a cord", item.Head)
		}
		vars[string(name.Bytes())] = item.Tail
		list = cell.Tail
	}
}
