package model

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// CloseButton configures the close control. It is either a plain on/off
// switch or a structured style; the JSON form follows suit.
type CloseButton struct {
	Enabled bool    `json:"enabled"`
	Color   Color   `json:"color,omitempty"`
	Variant Variant `json:"variant,omitempty"`
	Class   string  `json:"class,omitempty"`
}

type closeButtonJSON CloseButton

// MarshalJSON emits a bare bool when no styling is set.
func (c CloseButton) MarshalJSON() ([]byte, error) {
	if c.Color == "" && c.Variant == "" && c.Class == "" {
		return json.Marshal(c.Enabled)
	}
	return json.Marshal(closeButtonJSON(c))
}

// UnmarshalJSON accepts true, false, or an object. An object without an
// explicit "enabled" key means the button is shown.
func (c *CloseButton) UnmarshalJSON(data []byte) error {
	if b, ok := parseBool(data); ok {
		*c = CloseButton{Enabled: b}
		return nil
	}
	aux := closeButtonJSON{Enabled: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = CloseButton(aux)
	return nil
}

// Progress configures the countdown indicator.
type Progress struct {
	Enabled bool  `json:"enabled"`
	Color   Color `json:"color,omitempty"`
}

type progressJSON Progress

// MarshalJSON emits a bare bool when no color is set.
func (p Progress) MarshalJSON() ([]byte, error) {
	if p.Color == "" {
		return json.Marshal(p.Enabled)
	}
	return json.Marshal(progressJSON(p))
}

// UnmarshalJSON accepts true, false, or an object.
func (p *Progress) UnmarshalJSON(data []byte) error {
	if b, ok := parseBool(data); ok {
		*p = Progress{Enabled: b}
		return nil
	}
	aux := progressJSON{Enabled: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Progress(aux)
	return nil
}

func parseBool(data []byte) (bool, bool) {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Options is a partial toast passed to Stack.Add. Every field is
// optional: empty strings, nil pointers and zero MaxToasts mean "not
// supplied" and fall back to defaults.
type Options struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       Color        `json:"color,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Avatar      *Avatar      `json:"avatar,omitempty"`
	Orientation Orientation  `json:"orientation,omitempty"`
	Close       *CloseButton `json:"close,omitempty"`
	CloseIcon   string       `json:"closeIcon,omitempty"`
	Actions     []Action     `json:"actions,omitempty"`
	Progress    *Progress    `json:"progress,omitempty"`
	UI          *UI          `json:"ui,omitempty"`

	// Duration before auto-dismiss. A non-nil zero or negative value
	// disables auto-dismiss for this toast. Integer milliseconds on the
	// wire.
	Duration *time.Duration `json:"-"`

	// MaxToasts overrides the stack capacity for this insertion only.
	MaxToasts int `json:"maxToasts,omitempty"`

	// ShowIcon overrides the configured icon visibility for the
	// category constructors.
	ShowIcon *bool `json:"showIcon,omitempty"`

	Callback func() `json:"-"`
}

type optionsJSON Options

// MarshalJSON writes Duration as integer milliseconds.
func (o Options) MarshalJSON() ([]byte, error) {
	aux := struct {
		optionsJSON
		Duration *int64 `json:"duration,omitempty"`
	}{optionsJSON: optionsJSON(o)}
	if o.Duration != nil {
		ms := o.Duration.Milliseconds()
		aux.Duration = &ms
	}
	return json.Marshal(aux)
}

// UnmarshalJSON reads Duration from integer milliseconds; an explicit
// 0 is kept and means "never".
func (o *Options) UnmarshalJSON(data []byte) error {
	var aux struct {
		optionsJSON
		Duration *int64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Options(aux.optionsJSON)
	if aux.Duration != nil {
		d := time.Duration(*aux.Duration) * time.Millisecond
		o.Duration = &d
	}
	return nil
}

// Merge returns a copy of o where every field supplied in over wins.
func (o Options) Merge(over Options) Options {
	out := o
	if over.Title != "" {
		out.Title = over.Title
	}
	if over.Description != "" {
		out.Description = over.Description
	}
	if over.Color != "" {
		out.Color = over.Color
	}
	if over.Icon != "" {
		out.Icon = over.Icon
	}
	if over.Avatar != nil {
		out.Avatar = over.Avatar
	}
	if over.Orientation != "" {
		out.Orientation = over.Orientation
	}
	if over.Close != nil {
		out.Close = over.Close
	}
	if over.CloseIcon != "" {
		out.CloseIcon = over.CloseIcon
	}
	if over.Actions != nil {
		out.Actions = over.Actions
	}
	if over.Progress != nil {
		out.Progress = over.Progress
	}
	if over.UI != nil {
		out.UI = over.UI
	}
	if over.Duration != nil {
		out.Duration = over.Duration
	}
	if over.MaxToasts > 0 {
		out.MaxToasts = over.MaxToasts
	}
	if over.ShowIcon != nil {
		out.ShowIcon = over.ShowIcon
	}
	if over.Callback != nil {
		out.Callback = over.Callback
	}
	return out
}

// Build fills field defaults under o and returns the resulting toast.
// Duration, ID and timestamps are left for the caller, which resolves
// them against configuration.
func (o Options) Build() Toast {
	t := Toast{
		Title:       o.Title,
		Description: o.Description,
		Color:       DefaultColor,
		Icon:        o.Icon,
		Orientation: DefaultOrientation,
		Close:       CloseButton{Enabled: true},
		CloseIcon:   DefaultCloseIcon,
		Actions:     []Action{},
		Progress:    Progress{Enabled: true},
		MaxToasts:   o.MaxToasts,
		Callback:    o.Callback,
	}
	if o.Color != "" {
		t.Color = o.Color
	}
	if o.Orientation != "" {
		t.Orientation = o.Orientation
	}
	if o.Close != nil {
		t.Close = *o.Close
	}
	if o.CloseIcon != "" {
		t.CloseIcon = o.CloseIcon
	}
	if o.Actions != nil {
		t.Actions = slices.Clone(o.Actions)
	}
	if o.Progress != nil {
		t.Progress = *o.Progress
	}
	if o.Avatar != nil {
		a := *o.Avatar
		t.Avatar = &a
	}
	if o.UI != nil {
		u := *o.UI
		t.UI = &u
	}
	return t
}

// Ptr returns a pointer to v. Handy for the optional Options fields.
func Ptr[T any](v T) *T {
	return &v
}
