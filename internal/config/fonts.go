package config

import (
	"fmt"
	"path/filepath"
)

// Region names accepted by Font.
const (
	RegionHeader     = "header"
	RegionSchedule   = "schedule"
	RegionActionList = "action_list"
	RegionFooter     = "footer"
)

// Field names accepted by Font.
const (
	// FieldTitle is the region's own title font: the date in the header,
	// the strip title in the columns, the time labels in the footer.
	FieldTitle = "title"
	// FieldBody is the shared body font.
	FieldBody = "body"
	// FieldIcon is the region's large or weather glyph font.
	FieldIcon = "icon"
	// FieldBullet is the small glyph font used for task bullets.
	FieldBullet = "bullet"
)

// Icon sizes are fixed by the glyph artwork, not configured.
const (
	headerIconSize = 25
	bodyIconSize   = 15
)

// FontSpec identifies one face: a font file and a pixel size.
type FontSpec struct {
	Path string
	Size float64
}

func (s FontSpec) String() string {
	return fmt.Sprintf("%s@%g", filepath.Base(s.Path), s.Size)
}

// Font resolves the face a region uses for a field. It is the single place
// where font names from the config are turned into files.
func (c *Config) Font(region, field string) (FontSpec, error) {
	text := func(name string, size int) FontSpec {
		return FontSpec{Path: filepath.Join(c.FontDir, name+".ttf"), Size: float64(size)}
	}
	icon := func(file string, size int) FontSpec {
		return FontSpec{Path: filepath.Join(c.FontDir, file), Size: float64(size)}
	}

	if field == FieldBody {
		switch region {
		case RegionHeader, RegionSchedule, RegionActionList, RegionFooter:
			return text(c.Body.Font, c.Body.FontSize), nil
		}
	}

	switch region + "." + field {
	case RegionHeader + "." + FieldTitle:
		return text(c.Header.Font, c.Header.FontSize), nil
	case RegionHeader + "." + FieldIcon:
		return icon(c.Icons.Solid, headerIconSize), nil
	case RegionSchedule + "." + FieldTitle:
		return text(c.Schedule.HeaderFont, c.Schedule.HeaderFontSize), nil
	case RegionSchedule + "." + FieldIcon:
		return icon(c.Icons.Regular, headerIconSize), nil
	case RegionActionList + "." + FieldTitle:
		return text(c.ActionList.HeaderFont, c.ActionList.HeaderFontSize), nil
	case RegionActionList + "." + FieldIcon:
		return icon(c.Icons.Solid, headerIconSize), nil
	case RegionActionList + "." + FieldBullet:
		return icon(c.Icons.Regular, bodyIconSize), nil
	case RegionFooter + "." + FieldTitle:
		return text(c.Footer.HeaderFont, c.Footer.HeaderFontSize), nil
	case RegionFooter + "." + FieldIcon:
		return icon(c.Icons.Solid, bodyIconSize), nil
	}
	return FontSpec{}, fmt.Errorf("%w: no font for %s.%s", ErrConfigurationMissing, region, field)
}
