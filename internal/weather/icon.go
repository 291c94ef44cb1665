package weather

import "strings"

type IconKind string

const (
	IconSunny        IconKind = "sunny"
	IconCloudy       IconKind = "cloudy"
	IconRainy        IconKind = "rainy"
	IconSnowy        IconKind = "snowy"
	IconThunderstorm IconKind = "thunderstorm"
	IconFoggy        IconKind = "foggy"
)

// Order matters: "cloudy with rain" must resolve to cloudy.
var iconRules = []struct {
	keywords []string
	icon     IconKind
}{
	{[]string{"clear"}, IconSunny},
	{[]string{"cloud"}, IconCloudy},
	{[]string{"rain"}, IconRainy},
	{[]string{"snow"}, IconSnowy},
	{[]string{"thunder"}, IconThunderstorm},
	{[]string{"fog", "mist"}, IconFoggy},
}

func SelectIcon(description string) IconKind {
	d := strings.ToLower(description)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.icon
			}
		}
	}
	return IconCloudy
}

func (k IconKind) Glyph() string {
	switch k {
	case IconSunny:
		return "☀"
	case IconRainy:
		return "🌧"
	case IconSnowy:
		return "❄"
	case IconThunderstorm:
		return "⛈"
	case IconFoggy:
		return "🌫"
	default:
		return "☁"
	}
}

func (k IconKind) Label() string {
	switch k {
	case IconSunny:
		return "Sunny"
	case IconRainy:
		return "Rainy"
	case IconSnowy:
		return "Snowy"
	case IconThunderstorm:
		return "Thunderstorm"
	case IconFoggy:
		return "Foggy"
	default:
		return "Cloudy"
	}
}
