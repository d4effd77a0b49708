package content

import (
	"errors"
	"fmt"
)

// OverlayEffect enumerates the seasonal overlay animations.
type OverlayEffect string

const (
	OverlaySnow     OverlayEffect = "snow"
	OverlayLeaves   OverlayEffect = "leaves"
	OverlayConfetti OverlayEffect = "confetti"
)

// Valid reports whether the effect is one of the supported kinds.
func (e OverlayEffect) Valid() bool {
	switch e {
	case OverlaySnow, OverlayLeaves, OverlayConfetti:
		return true
	}
	return false
}

// Density enumerates the site layout density settings.
type Density string

const (
	DensitySmall  Density = "S"
	DensityMedium Density = "M"
	DensityLarge  Density = "L"
)

// Valid reports whether the density is one of the supported values.
func (d Density) Valid() bool {
	switch d {
	case DensitySmall, DensityMedium, DensityLarge:
		return true
	}
	return false
}

// ErrInvalidSettings indicates a settings document with an out-of-range
// enum value.
var ErrInvalidSettings = errors.New("content: invalid site settings")

// ThemeColors holds the three site theme colors.
type ThemeColors struct {
	Background string `json:"bg"`
	Foreground string `json:"fg"`
	Accent     string `json:"accent"`
}

// FontConfig holds font and ticker configuration.
type FontConfig struct {
	Display            string  `json:"display"`
	Base               string  `json:"base"`
	Ticker             string  `json:"ticker,omitempty"`
	TickerSpeedSeconds float64 `json:"tickerSpeed,omitempty"`
}

// PromoConfig drives the promotional popup.
type PromoConfig struct {
	Enabled  bool   `json:"enabled"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
}

// OverlayConfig drives the full-page overlay animation.
type OverlayConfig struct {
	Enabled bool          `json:"enabled"`
	Effect  OverlayEffect `json:"type"`
}

// SiteSettings is the singleton settings document.
type SiteSettings struct {
	Colors           ThemeColors   `json:"colors"`
	Fonts            FontConfig    `json:"fonts"`
	Promo            PromoConfig   `json:"promo"`
	Overlay          OverlayConfig `json:"overlay_animation"`
	HeaderOverlayURL string        `json:"header_overlay_url"`
	Density          Density       `json:"density"`
}

// DefaultSettings returns the settings used before an operator has saved any.
func DefaultSettings() SiteSettings {
	return SiteSettings{
		Colors: ThemeColors{
			Background: "#000000",
			Foreground: "#FFFFFF",
			Accent:     "#E10600",
		},
		Fonts: FontConfig{
			Display:            "Press Start 2P",
			Base:               "Inter",
			TickerSpeedSeconds: 20,
		},
		Promo:   PromoConfig{},
		Overlay: OverlayConfig{Effect: OverlaySnow},
		Density: DensityMedium,
	}
}

// Validate checks the enum-valued fields.
func (s SiteSettings) Validate() error {
	if !s.Density.Valid() {
		return fmt.Errorf("%w: density %q", ErrInvalidSettings, s.Density)
	}
	if s.Overlay.Enabled && !s.Overlay.Effect.Valid() {
		return fmt.Errorf("%w: overlay effect %q", ErrInvalidSettings, s.Overlay.Effect)
	}
	if s.Fonts.TickerSpeedSeconds < 0 {
		return fmt.Errorf("%w: ticker speed %v", ErrInvalidSettings, s.Fonts.TickerSpeedSeconds)
	}
	return nil
}
