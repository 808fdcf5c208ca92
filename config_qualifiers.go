// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import "fmt"

// The qualifier types below wrap the raw bytes of the configuration
// record. Each has a configValue method returning the token used in a
// configuration name, empty for "any" (and for states that have no
// token, like the normal UI mode).

// Orientation of the display.
type Orientation uint8

// Orientation values.
const (
	OrientationAny Orientation = iota
	OrientationPortrait
	OrientationLandscape
	OrientationSquare
)

func (o Orientation) configValue() string {
	switch o {
	case OrientationPortrait:
		return "port"
	case OrientationLandscape:
		return "land"
	case OrientationSquare:
		return "square"
	}
	return ""
}

// Touchscreen capability.
type Touchscreen uint8

// Touchscreen values.
const (
	TouchscreenAny Touchscreen = iota
	TouchscreenNoTouch
	TouchscreenStylus
	TouchscreenFinger
)

func (t Touchscreen) configValue() string {
	switch t {
	case TouchscreenNoTouch:
		return "notouch"
	case TouchscreenStylus:
		return "stylus"
	case TouchscreenFinger:
		return "finger"
	}
	return ""
}

// Density in dpi, with the named buckets and the any/none sentinels.
type Density uint16

// Density sentinels.
const (
	DensityDefault Density = 0
	DensityLow     Density = 120
	DensityMedium  Density = 160
	DensityTV      Density = 213
	DensityHigh    Density = 240
	DensityXHigh   Density = 320
	DensityXXHigh  Density = 480
	DensityXXXHigh Density = 640
	DensityAny     Density = 0xfffe
	DensityNone    Density = 0xffff
)

func (d Density) configValue() string {
	switch d {
	case DensityDefault:
		return ""
	case DensityLow:
		return "ldpi"
	case DensityMedium:
		return "mdpi"
	case DensityTV:
		return "tvdpi"
	case DensityHigh:
		return "hdpi"
	case DensityXHigh:
		return "xhdpi"
	case DensityXXHigh:
		return "xxhdpi"
	case DensityXXXHigh:
		return "xxxhdpi"
	case DensityAny:
		return "anydpi"
	case DensityNone:
		return "nodpi"
	}
	return fmt.Sprintf("%ddpi", uint16(d))
}

// Keyboard kind.
type Keyboard uint8

// Keyboard values.
const (
	KeyboardAny Keyboard = iota
	KeyboardNoKeys
	KeyboardQWERTY
	KeyboardTwelveKey
)

func (k Keyboard) configValue() string {
	switch k {
	case KeyboardNoKeys:
		return "nokeys"
	case KeyboardQWERTY:
		return "qwerty"
	case KeyboardTwelveKey:
		return "12key"
	}
	return ""
}

// Navigation kind.
type Navigation uint8

// Navigation values.
const (
	NavigationAny Navigation = iota
	NavigationNoNav
	NavigationDPad
	NavigationTrackball
	NavigationWheel
)

func (n Navigation) configValue() string {
	switch n {
	case NavigationNoNav:
		return "nonav"
	case NavigationDPad:
		return "dpad"
	case NavigationTrackball:
		return "trackball"
	case NavigationWheel:
		return "wheel"
	}
	return ""
}

// KeysHidden state, bits 0-1 of the input flags.
type KeysHidden uint8

// KeysHidden values.
const (
	KeysHiddenAny KeysHidden = iota
	KeysHiddenNo
	KeysHiddenYes
	KeysHiddenSoft
)

func (k KeysHidden) configValue() string {
	switch k {
	case KeysHiddenNo:
		return "keysexposed"
	case KeysHiddenYes:
		return "keyshidden"
	case KeysHiddenSoft:
		return "keyssoft"
	}
	return ""
}

// NavHidden state, bits 2-3 of the input flags.
type NavHidden uint8

// NavHidden values.
const (
	NavHiddenAny NavHidden = iota
	NavHiddenNo
	NavHiddenYes
)

func (n NavHidden) configValue() string {
	switch n {
	case NavHiddenNo:
		return "navhidden"
	case NavHiddenYes:
		return "navexposed"
	}
	return ""
}

// ScreenSize class, bits 0-3 of the screen layout byte.
type ScreenSize uint8

// ScreenSize values.
const (
	ScreenSizeAny ScreenSize = iota
	ScreenSizeSmall
	ScreenSizeNormal
	ScreenSizeLarge
	ScreenSizeXLarge
)

func (s ScreenSize) configValue() string {
	switch s {
	case ScreenSizeSmall:
		return "small"
	case ScreenSizeNormal:
		return "normal"
	case ScreenSizeLarge:
		return "large"
	case ScreenSizeXLarge:
		return "xlarge"
	}
	return ""
}

// ScreenLong state, bits 4-5 of the screen layout byte.
type ScreenLong uint8

// ScreenLong values.
const (
	ScreenLongAny ScreenLong = iota
	ScreenLongNo
	ScreenLongYes
)

func (s ScreenLong) configValue() string {
	switch s {
	case ScreenLongNo:
		return "notlong"
	case ScreenLongYes:
		return "long"
	}
	return ""
}

// LayoutDirection, bits 6-7 of the screen layout byte.
type LayoutDirection uint8

// LayoutDirection values.
const (
	LayoutDirectionAny LayoutDirection = iota
	LayoutDirectionLTR
	LayoutDirectionRTL
)

func (l LayoutDirection) configValue() string {
	switch l {
	case LayoutDirectionLTR:
		return "ldltr"
	case LayoutDirectionRTL:
		return "ldlrtl"
	}
	return ""
}

// UIMode class, bits 0-3 of the UI mode byte.
type UIMode uint8

// UIMode values.
const (
	UIModeAny UIMode = iota
	UIModeNormal
	UIModeDesk
	UIModeCar
	UIModeTelevision
	UIModeAppliance
	UIModeWatch
	UIModeVRHeadset
)

func (u UIMode) configValue() string {
	switch u {
	case UIModeDesk:
		return "desk"
	case UIModeCar:
		return "car"
	case UIModeTelevision:
		return "television"
	case UIModeAppliance:
		return "appliance"
	case UIModeWatch:
		return "watch"
	case UIModeVRHeadset:
		return "vrheadset"
	}
	return ""
}

// NightMode state, bits 4-5 of the UI mode byte.
type NightMode uint8

// NightMode values.
const (
	NightModeAny NightMode = iota
	NightModeNo
	NightModeYes
)

func (n NightMode) configValue() string {
	switch n {
	case NightModeNo:
		return "notnight"
	case NightModeYes:
		return "night"
	}
	return ""
}

// ScreenRound state, bits 0-1 of the second screen layout byte.
type ScreenRound uint8

// ScreenRound values.
const (
	ScreenRoundAny ScreenRound = iota
	ScreenRoundNo
	ScreenRoundYes
)

func (s ScreenRound) configValue() string {
	switch s {
	case ScreenRoundNo:
		return "notround"
	case ScreenRoundYes:
		return "round"
	}
	return ""
}

// WideColorGamut state, bits 0-1 of the color mode byte.
type WideColorGamut uint8

// WideColorGamut values.
const (
	WideColorGamutAny WideColorGamut = iota
	WideColorGamutNo
	WideColorGamutYes
)

func (w WideColorGamut) configValue() string {
	switch w {
	case WideColorGamutNo:
		return "nowidecg"
	case WideColorGamutYes:
		return "widecg"
	}
	return ""
}

// HDR state, bits 2-3 of the color mode byte.
type HDR uint8

// HDR values.
const (
	HDRAny HDR = iota
	HDRNo
	HDRYes
)

func (h HDR) configValue() string {
	switch h {
	case HDRNo:
		return "lowdr"
	case HDRYes:
		return "highdr"
	}
	return ""
}
