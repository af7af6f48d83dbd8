// Package configedit implements optimistic field-level editing of platform
// configuration. An Editor tracks the current wire values of a set of fields,
// per-field edit sessions with pending values, and the in-flight save state,
// so that one failed save never disturbs the other fields.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/elpatio/backoffice/internal/configfield"
	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/pkg/logger"
)

var (
	// ErrUnknownField is returned when an operation names a field the
	// editor has not loaded.
	ErrUnknownField = errors.New("configedit: unknown field")
	// ErrNotEditing is returned when a value update or save targets a
	// field without an open edit session.
	ErrNotEditing = errors.New("configedit: field is not being edited")
	// ErrSaveInProgress is returned when a save is requested for a field
	// whose previous save has not finished.
	ErrSaveInProgress = errors.New("configedit: save already in progress")
)

// ValidationError reports a pending value that failed its field-class check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configedit: %s: %s", e.Field, e.Message)
}

// Field is one editable configuration entry. Type and Key address the entry
// on the backend; Value holds the wire representation.
type Field struct {
	Type  string
	Key   string
	Class configfield.Class
	Value interface{}
}

// FieldKey addresses a field inside the editor. Fields from different
// namespaces never collide because the type is part of the key.
func (f Field) FieldKey() string { return f.Type + "." + f.Key }

// Updater persists a single field change on the backend.
type Updater interface {
	UpdatePaymentConfig(ctx context.Context, configType, configKey string, value interface{}) error
}

// Notifier receives user-facing outcome messages for saves.
type Notifier func(level, message string)

type session struct {
	pending interface{} // UI representation
	saving  bool
}

// Editor tracks field values and edit sessions. All methods are safe for
// concurrent use; saves release the lock while the network call runs.
type Editor struct {
	updater Updater
	notify  Notifier
	log     *logger.Logger

	mu       sync.Mutex
	fields   map[string]*Field
	sessions map[string]*session
}

// New creates an editor over the given updater. The notifier may be nil.
func New(updater Updater, notify Notifier, log *logger.Logger) *Editor {
	if log == nil {
		log = logger.NewDefault("configedit")
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Editor{
		updater:  updater,
		notify:   notify,
		log:      log,
		fields:   make(map[string]*Field),
		sessions: make(map[string]*session),
	}
}

// Load replaces the editor's field set with a fresh snapshot. Open edit
// sessions for fields that survive the reload are kept; sessions for fields
// that disappeared are dropped.
func (e *Editor) Load(fields []Field) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.fields = make(map[string]*Field, len(fields))
	for i := range fields {
		f := fields[i]
		e.fields[f.FieldKey()] = &f
	}
	for key := range e.sessions {
		if _, known := e.fields[key]; !known {
			delete(e.sessions, key)
		}
	}
}

// Fields returns the loaded fields sorted by key.
func (e *Editor) Fields() []Field {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Field, 0, len(e.fields))
	for _, f := range e.fields {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldKey() < out[j].FieldKey() })
	return out
}

// BeginEdit opens an edit session for the field, seeding the pending value
// from the current one. Beginning an edit on a field already being edited
// resets the pending value.
func (e *Editor) BeginEdit(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, known := e.fields[key]
	if !known {
		return ErrUnknownField
	}
	if s, open := e.sessions[key]; open && s.saving {
		return ErrSaveInProgress
	}
	e.sessions[key] = &session{pending: configfield.ToUI(f.Class, f.Value)}
	return nil
}

// UpdateValue replaces the pending value of an open edit session.
func (e *Editor) UpdateValue(key string, ui interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, open := e.sessions[key]
	if !open {
		return ErrNotEditing
	}
	if s.saving {
		return ErrSaveInProgress
	}
	s.pending = ui
	return nil
}

// CancelEdit discards the edit session, if any. Cancelling a field whose
// save is in flight is rejected.
func (e *Editor) CancelEdit(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, open := e.sessions[key]; open && s.saving {
		return ErrSaveInProgress
	}
	delete(e.sessions, key)
	return nil
}

// IsEditing reports whether the field has an open edit session.
func (e *Editor) IsEditing(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, open := e.sessions[key]
	return open
}

// IsSaving reports whether a save for the field is in flight.
func (e *Editor) IsSaving(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, open := e.sessions[key]
	return open && s.saving
}

// Value returns the current wire value of the field.
func (e *Editor) Value(key string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, known := e.fields[key]
	if !known {
		return nil, ErrUnknownField
	}
	return f.Value, nil
}

// PendingOrCurrent returns the value to show for the field: the pending edit
// value when a session is open, the current value in UI representation
// otherwise.
func (e *Editor) PendingOrCurrent(key string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, known := e.fields[key]
	if !known {
		return nil, ErrUnknownField
	}
	if s, open := e.sessions[key]; open {
		return s.pending, nil
	}
	return configfield.ToUI(f.Class, f.Value), nil
}

// Save validates the pending value, persists it through the updater and, on
// success, merges the new wire value into the field cache and closes the
// session. On failure the session stays open with the pending value intact.
// The save flag is cleared on every exit path.
func (e *Editor) Save(ctx context.Context, key string) error {
	e.mu.Lock()
	f, known := e.fields[key]
	if !known {
		e.mu.Unlock()
		return ErrUnknownField
	}
	s, open := e.sessions[key]
	if !open {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if s.saving {
		e.mu.Unlock()
		return ErrSaveInProgress
	}

	wire, err := configfield.ToWire(f.Class, s.pending)
	if err == nil {
		if r := configfield.Validate(f.Class, wire); !r.Valid {
			err = errors.New(r.Message)
		}
	}
	if err != nil {
		e.mu.Unlock()
		metrics.ConfigSave("invalid")
		verr := &ValidationError{Field: key, Message: err.Error()}
		e.notify("error", verr.Message)
		return verr
	}

	s.saving = true
	configType, configKey := f.Type, f.Key
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if cur, still := e.sessions[key]; still {
			cur.saving = false
		}
		e.mu.Unlock()
	}()

	if err := e.updater.UpdatePaymentConfig(ctx, configType, configKey, wire); err != nil {
		metrics.ConfigSave("error")
		e.log.WithError(err).WithField("field", key).Error("config save failed")
		e.notify("error", fmt.Sprintf("could not save %s: %v", key, err))
		return err
	}

	e.mu.Lock()
	f.Value = wire
	delete(e.sessions, key)
	e.mu.Unlock()

	metrics.ConfigSave("ok")
	e.log.WithField("field", key).Info("config saved")
	e.notify("success", fmt.Sprintf("%s updated", key))
	return nil
}
