package shell

import "strings"

// Fallback colors used when the host does not supply a theme token.
const (
	DefaultBgColor         = "#0a0a0a"
	DefaultTextColor       = "#ffffff"
	DefaultHintColor       = "#6b7280"
	DefaultLinkColor       = "#06b6d4"
	DefaultButtonColor     = "#3b82f6"
	DefaultButtonTextColor = "#ffffff"
)

// ThemeParams are the raw theme tokens reported by the host, any of which may be empty.
type ThemeParams struct {
	BgColor         string `json:"bg_color"`
	TextColor       string `json:"text_color"`
	HintColor       string `json:"hint_color"`
	LinkColor       string `json:"link_color"`
	ButtonColor     string `json:"button_color"`
	ButtonTextColor string `json:"button_text_color"`
}

// Theme is a fully resolved palette.
type Theme struct {
	BgColor         string `json:"bgColor"`
	TextColor       string `json:"textColor"`
	HintColor       string `json:"hintColor"`
	LinkColor       string `json:"linkColor"`
	ButtonColor     string `json:"buttonColor"`
	ButtonTextColor string `json:"buttonTextColor"`
}

// ResolveTheme fills every missing token with its fallback.
func ResolveTheme(p ThemeParams) Theme {
	return Theme{
		BgColor:         orDefault(p.BgColor, DefaultBgColor),
		TextColor:       orDefault(p.TextColor, DefaultTextColor),
		HintColor:       orDefault(p.HintColor, DefaultHintColor),
		LinkColor:       orDefault(p.LinkColor, DefaultLinkColor),
		ButtonColor:     orDefault(p.ButtonColor, DefaultButtonColor),
		ButtonTextColor: orDefault(p.ButtonTextColor, DefaultButtonTextColor),
	}
}

// User is the identity the host exposes. Used for display only.
type User struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	IsPremium bool   `json:"is_premium,omitempty"`
}

// DisplayName is the greeting name, "User" when the host gave none.
func (u User) DisplayName() string {
	return orDefault(u.FirstName, "User")
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
