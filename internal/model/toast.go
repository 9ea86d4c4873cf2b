// Package model defines the core data structures for toastify.
package model

import (
	"crypto/rand"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Color is the semantic category of a toast.
type Color string

const (
	ColorPrimary   Color = "primary"
	ColorSecondary Color = "secondary"
	ColorSuccess   Color = "success"
	ColorInfo      Color = "info"
	ColorWarning   Color = "warning"
	ColorError     Color = "error"
	ColorNeutral   Color = "neutral"
)

// ValidColors returns all valid color values.
func ValidColors() []Color {
	return []Color{
		ColorPrimary,
		ColorSecondary,
		ColorSuccess,
		ColorInfo,
		ColorWarning,
		ColorError,
		ColorNeutral,
	}
}

// Valid reports whether c is one of the known colors.
func (c Color) Valid() bool {
	for _, v := range ValidColors() {
		if c == v {
			return true
		}
	}
	return false
}

// Orientation is a layout hint for the renderer.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// Variant is the button style used for actions and the close button.
type Variant string

const (
	VariantSolid   Variant = "solid"
	VariantOutline Variant = "outline"
	VariantSoft    Variant = "soft"
	VariantGhost   Variant = "ghost"
	VariantLink    Variant = "link"
)

// Default presentation values.
const (
	DefaultColor       = ColorPrimary
	DefaultOrientation = OrientationVertical
	DefaultCloseIcon   = "i-lucide-x"
)

// Category icons used by the convenience constructors.
const (
	IconSuccess = "i-lucide-circle-check"
	IconError   = "i-lucide-circle-x"
	IconInfo    = "i-lucide-info"
	IconWarning = "i-lucide-triangle-alert"
)

// Action is a button rendered on a toast.
type Action struct {
	Label   string  `json:"label"`
	Icon    string  `json:"icon,omitempty"`
	Color   Color   `json:"color,omitempty"`
	Variant Variant `json:"variant,omitempty"`
	Class   string  `json:"class,omitempty"`

	// OnClick runs when the renderer reports a click. Never serialized.
	OnClick func() `json:"-" yaml:"-"`
}

// Avatar is optional leading imagery for a toast.
type Avatar struct {
	Src  string `json:"src,omitempty"`
	Alt  string `json:"alt,omitempty"`
	Icon string `json:"icon,omitempty"`
	Text string `json:"text,omitempty"`
}

// UI holds per-slot class overrides for the renderer.
type UI struct {
	Root        string `json:"root,omitempty"`
	Wrapper     string `json:"wrapper,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Actions     string `json:"actions,omitempty"`
	Progress    string `json:"progress,omitempty"`
	Close       string `json:"close,omitempty"`
}

// Toast is a single transient notification on the stack.
type Toast struct {
	ID          string        `json:"id"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Color       Color         `json:"color"`
	Icon        string        `json:"icon,omitempty"`
	Avatar      *Avatar       `json:"avatar,omitempty"`
	Orientation Orientation   `json:"orientation"`
	Close       CloseButton   `json:"close"`
	CloseIcon   string        `json:"closeIcon,omitempty"`
	Actions     []Action      `json:"actions"`
	Progress    Progress      `json:"progress"`
	Duration    time.Duration `json:"-"`
	MaxToasts   int           `json:"maxToasts,omitempty"`
	UI          *UI           `json:"ui,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	ExpiresAt   time.Time     `json:"expiresAt,omitzero"`

	// Callback runs once when the toast is removed by id or by timeout.
	Callback func() `json:"-" yaml:"-"`
}

type toastJSON Toast

// MarshalJSON writes Duration as integer milliseconds.
func (t Toast) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		toastJSON
		Duration int64 `json:"duration"`
	}{toastJSON(t), t.Duration.Milliseconds()})
}

// UnmarshalJSON reads Duration from integer milliseconds.
func (t *Toast) UnmarshalJSON(data []byte) error {
	var aux struct {
		toastJSON
		Duration int64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Toast(aux.toastJSON)
	t.Duration = time.Duration(aux.Duration) * time.Millisecond
	return nil
}

// AutoDismiss reports whether the toast has a pending expiry.
func (t *Toast) AutoDismiss() bool {
	return t.Duration > 0
}

// Remaining returns the time left before expiry, or 0 when the toast
// never expires or has already expired.
func (t *Toast) Remaining(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() {
		return 0
	}
	return max(t.ExpiresAt.Sub(now), 0)
}

// Clone returns a copy that shares no mutable slices or pointers.
func (t *Toast) Clone() Toast {
	clone := *t
	clone.Actions = slices.Clone(t.Actions)
	if t.Avatar != nil {
		a := *t.Avatar
		clone.Avatar = &a
	}
	if t.UI != nil {
		u := *t.UI
		clone.UI = &u
	}
	return clone
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a new toast id. Ids are monotonic ULIDs so two ids
// minted in the same millisecond never collide within a process.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return "toast-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
