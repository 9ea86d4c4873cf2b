package stack

import "github.com/jmylchreest/toastify/internal/model"

// Success adds a toast preset with the success color and icon.
func (s *Stack) Success(title, description string, overrides ...model.Options) string {
	return s.category(model.ColorSuccess, model.IconSuccess, title, description, overrides)
}

// Error adds a toast preset with the error color and icon.
func (s *Stack) Error(title, description string, overrides ...model.Options) string {
	return s.category(model.ColorError, model.IconError, title, description, overrides)
}

// Info adds a toast preset with the info color and icon.
func (s *Stack) Info(title, description string, overrides ...model.Options) string {
	return s.category(model.ColorInfo, model.IconInfo, title, description, overrides)
}

// Warning adds a toast preset with the warning color and icon.
func (s *Stack) Warning(title, description string, overrides ...model.Options) string {
	return s.category(model.ColorWarning, model.IconWarning, title, description, overrides)
}

// Category adds a toast using the preset for color. Unknown colors get
// no icon.
func (s *Stack) Category(color model.Color, title, description string, overrides ...model.Options) string {
	return s.category(color, CategoryIcon(color), title, description, overrides)
}

// CategoryIcon returns the preset icon for a category color.
func CategoryIcon(color model.Color) string {
	switch color {
	case model.ColorSuccess:
		return model.IconSuccess
	case model.ColorError:
		return model.IconError
	case model.ColorInfo:
		return model.IconInfo
	case model.ColorWarning:
		return model.IconWarning
	default:
		return ""
	}
}

func (s *Stack) category(color model.Color, icon, title, description string, overrides []model.Options) string {
	var over model.Options
	for _, o := range overrides {
		over = over.Merge(o)
	}

	opts := model.Options{
		Title:       title,
		Description: description,
		Color:       color,
	}
	if s.resolver.ShowIcon(over.ShowIcon) {
		opts.Icon = icon
	}
	return s.Add(opts.Merge(over))
}
