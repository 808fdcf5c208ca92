// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"fmt"
	"strings"
)

// Configuration is one decoded device configuration record. A zero
// value in any integer qualifier means "any". The record is read-only
// after decode; all semantic interpretation happens in the accessors.
type Configuration struct {
	mcc      uint16
	mnc      uint16
	language uint16
	region   uint16

	orientation uint8
	touchscreen uint8
	density     uint16

	keyboard   uint8
	navigation uint8
	inputFlags uint8

	screenWidth  uint16
	screenHeight uint16

	sdkVersion   uint16
	minorVersion uint16

	screenLayout    uint8
	uiMode          uint8
	smallestWidthDp uint16
	screenWidthDp   uint16
	screenHeightDp  uint16

	localeScript  string
	localeVariant string

	screenLayout2 uint8
	colorMode     uint8
}

// parseConfiguration decodes the fixed-layout record. The leading size
// field names the full record length; fields beyond what this
// implementation recognizes are skipped, fields beyond what the record
// carries read as zero ("any"). The locale bytes are the one
// big-endian field of the format.
func parseConfiguration(r *dataReader) (Configuration, error) {
	size, err := r.uint32()
	if err != nil {
		return Configuration{}, ErrMalformedChunk
	}
	if size < 4 {
		return Configuration{}, fmt.Errorf("%w: configuration size %d", ErrInvalidData, size)
	}
	rec, err := r.take(int(size) - 4)
	if err != nil {
		return Configuration{}, ErrMalformedChunk
	}

	sub := newDataReader(rec)
	u8 := func() uint8 {
		if sub.remaining() >= 1 {
			v, _ := sub.uint8()
			return v
		}
		return 0
	}
	u16 := func() uint16 {
		if sub.remaining() >= 2 {
			v, _ := sub.uint16()
			return v
		}
		return 0
	}
	u16be := func() uint16 {
		if sub.remaining() >= 2 {
			v, _ := sub.uint16be()
			return v
		}
		return 0
	}
	str := func(n int) string {
		if sub.remaining() >= n {
			b, _ := sub.take(n)
			return decodeZeroTerminatedUTF8(b)
		}
		return ""
	}

	var c Configuration
	c.mcc = u16()
	c.mnc = u16()
	c.language = u16be()
	c.region = u16be()
	c.orientation = u8()
	c.touchscreen = u8()
	c.density = u16()
	c.keyboard = u8()
	c.navigation = u8()
	c.inputFlags = u8()
	u8() // input padding
	c.screenWidth = u16()
	c.screenHeight = u16()
	c.sdkVersion = u16()
	c.minorVersion = u16()
	c.screenLayout = u8()
	c.uiMode = u8()
	c.smallestWidthDp = u16()
	c.screenWidthDp = u16()
	c.screenHeightDp = u16()
	c.localeScript = str(4)
	c.localeVariant = str(8)
	c.screenLayout2 = u8()
	c.colorMode = u8()
	// Anything after this point is newer than the layout understood
	// here and is skipped via the declared size.

	return c, nil
}

// MCC returns the mobile country code, 0 for any.
func (c *Configuration) MCC() uint16 { return c.mcc }

// MNC returns the mobile network code, 0 for any.
func (c *Configuration) MNC() uint16 { return c.mnc }

// Language returns the two-letter language code, "" for any.
func (c *Configuration) Language() string {
	return languageOrRegionString(c.language)
}

// Region returns the two-letter region code, "" for any.
func (c *Configuration) Region() string {
	return languageOrRegionString(c.region)
}

// LocaleScript returns the four-letter locale script, "" for any.
func (c *Configuration) LocaleScript() string { return c.localeScript }

// LocaleVariant returns the locale variant, "" for any.
func (c *Configuration) LocaleVariant() string { return c.localeVariant }

// Orientation returns the orientation qualifier.
func (c *Configuration) Orientation() Orientation { return Orientation(c.orientation) }

// Touchscreen returns the touchscreen qualifier.
func (c *Configuration) Touchscreen() Touchscreen { return Touchscreen(c.touchscreen) }

// Density returns the density qualifier.
func (c *Configuration) Density() Density { return Density(c.density) }

// Keyboard returns the keyboard qualifier.
func (c *Configuration) Keyboard() Keyboard { return Keyboard(c.keyboard) }

// Navigation returns the navigation qualifier.
func (c *Configuration) Navigation() Navigation { return Navigation(c.navigation) }

// KeysHidden returns the keys-hidden state packed into the input flags.
func (c *Configuration) KeysHidden() KeysHidden {
	return KeysHidden(c.inputFlags & 0x03)
}

// NavHidden returns the nav-hidden state packed into the input flags.
func (c *Configuration) NavHidden() NavHidden {
	return NavHidden((c.inputFlags & 0x0c) >> 2)
}

// ScreenWidth returns the raw screen width, 0 for any.
func (c *Configuration) ScreenWidth() uint16 { return c.screenWidth }

// ScreenHeight returns the raw screen height, 0 for any.
func (c *Configuration) ScreenHeight() uint16 { return c.screenHeight }

// SDKVersion returns the platform version qualifier, 0 for any.
func (c *Configuration) SDKVersion() uint16 { return c.sdkVersion }

// MinorVersion returns the platform minor version, 0 for any.
func (c *Configuration) MinorVersion() uint16 { return c.minorVersion }

// ScreenSize returns the size class packed into the screen layout byte.
func (c *Configuration) ScreenSize() ScreenSize {
	return ScreenSize(c.screenLayout & 0x0f)
}

// ScreenLong returns the long-screen state packed into the screen
// layout byte.
func (c *Configuration) ScreenLong() ScreenLong {
	return ScreenLong((c.screenLayout & 0x30) >> 4)
}

// LayoutDirection returns the layout direction packed into the screen
// layout byte.
func (c *Configuration) LayoutDirection() LayoutDirection {
	return LayoutDirection((c.screenLayout & 0xc0) >> 6)
}

// UIMode returns the mode class packed into the UI mode byte.
func (c *Configuration) UIMode() UIMode {
	return UIMode(c.uiMode & 0x0f)
}

// NightMode returns the night state packed into the UI mode byte.
func (c *Configuration) NightMode() NightMode {
	return NightMode((c.uiMode & 0x30) >> 4)
}

// SmallestWidthDp returns the smallest-width qualifier in dp, 0 for
// any.
func (c *Configuration) SmallestWidthDp() uint16 { return c.smallestWidthDp }

// ScreenWidthDp returns the width qualifier in dp, 0 for any.
func (c *Configuration) ScreenWidthDp() uint16 { return c.screenWidthDp }

// ScreenHeightDp returns the height qualifier in dp, 0 for any.
func (c *Configuration) ScreenHeightDp() uint16 { return c.screenHeightDp }

// ScreenRound returns the round-screen state packed into the second
// screen layout byte.
func (c *Configuration) ScreenRound() ScreenRound {
	return ScreenRound(c.screenLayout2 & 0x03)
}

// WideColorGamut returns the wide-gamut state packed into the color
// mode byte.
func (c *Configuration) WideColorGamut() WideColorGamut {
	return WideColorGamut(c.colorMode & 0x03)
}

// HDR returns the high-dynamic-range state packed into the color mode
// byte.
func (c *Configuration) HDR() HDR {
	return HDR((c.colorMode & 0x0c) >> 2)
}

// IsDefault reports whether every qualifier is "any".
func (c *Configuration) IsDefault() bool {
	return len(c.parts()) == 0
}

// ConfigurationName renders the canonical dash-separated qualifier
// string, e.g. "de-rAT-hdpi-v21". The second return is false for the
// default configuration, which has no name.
func (c *Configuration) ConfigurationName() (string, bool) {
	parts := c.parts()
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "-"), true
}

// String renders the configuration name, or "default".
func (c *Configuration) String() string {
	if name, ok := c.ConfigurationName(); ok {
		return name
	}
	return "default"
}

// parts collects the non-"any" qualifier tokens in canonical order.
func (c *Configuration) parts() []string {
	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	if c.mcc != 0 {
		add(fmt.Sprintf("mcc%d", c.mcc))
	}
	if c.mnc != 0 {
		add(fmt.Sprintf("mnc%d", c.mnc))
	}
	add(c.Language())
	if r := c.Region(); r != "" {
		add("r" + r)
	}
	add(c.LayoutDirection().configValue())
	if c.smallestWidthDp != 0 {
		add(fmt.Sprintf("sw%ddp", c.smallestWidthDp))
	}
	if c.screenWidthDp != 0 {
		add(fmt.Sprintf("w%ddp", c.screenWidthDp))
	}
	if c.screenHeightDp != 0 {
		add(fmt.Sprintf("h%ddp", c.screenHeightDp))
	}
	add(c.ScreenSize().configValue())
	add(c.ScreenLong().configValue())
	add(c.ScreenRound().configValue())
	add(c.WideColorGamut().configValue())
	add(c.HDR().configValue())
	add(c.Orientation().configValue())
	add(c.UIMode().configValue())
	add(c.NightMode().configValue())
	add(c.Density().configValue())
	add(c.Touchscreen().configValue())
	add(c.KeysHidden().configValue())
	add(c.Keyboard().configValue())
	add(c.NavHidden().configValue())
	add(c.Navigation().configValue())
	if c.sdkVersion != 0 {
		add(fmt.Sprintf("v%d", c.sdkVersion))
	}
	return parts
}

// languageOrRegionString unpacks the big-endian two-byte locale field.
// Both high bits clear means two ASCII letters.
func languageOrRegionString(v uint16) string {
	if v == 0 {
		return ""
	}
	if v&0x8080 == 0 {
		return string([]byte{byte(v >> 8), byte(v)})
	}
	// TODO: add support for the packed three-letter codes
	return ""
}
