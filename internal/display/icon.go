package display

// Glyph is the visual for a provider icon code.
type Glyph struct {
	Name   string
	Symbol string
	Night  bool
}

// DefaultGlyph is the clear-sky day glyph, also shown for unrecognised codes.
var DefaultGlyph = Glyph{Name: "sun", Symbol: "☀️"}

// IconFor maps an OpenWeatherMap icon code (01d..50n) to a Glyph.
// Unknown codes get DefaultGlyph; it never fails.
func IconFor(code string) Glyph {
	switch code {
	case "01d":
		return DefaultGlyph
	case "01n":
		return Glyph{Name: "moon", Symbol: "🌙", Night: true}
	case "02d":
		return Glyph{Name: "cloud-sun", Symbol: "🌤️"}
	case "02n":
		return Glyph{Name: "cloud-moon", Symbol: "☁️🌙", Night: true}
	case "03d":
		return Glyph{Name: "cloud", Symbol: "⛅"}
	case "03n":
		return Glyph{Name: "cloud", Symbol: "☁️", Night: true}
	case "04d":
		return Glyph{Name: "cloudy", Symbol: "🌥️"}
	case "04n":
		return Glyph{Name: "cloudy", Symbol: "☁️☁️", Night: true}
	case "09d":
		return Glyph{Name: "cloud-drizzle", Symbol: "🌦️"}
	case "09n":
		return Glyph{Name: "cloud-drizzle", Symbol: "🌧️", Night: true}
	case "10d":
		return Glyph{Name: "cloud-rain", Symbol: "☔"}
	case "10n":
		return Glyph{Name: "cloud-rain", Symbol: "🌧️🌙", Night: true}
	case "11d":
		return Glyph{Name: "cloud-lightning", Symbol: "⛈️"}
	case "11n":
		return Glyph{Name: "cloud-lightning", Symbol: "🌩️", Night: true}
	case "13d":
		return Glyph{Name: "cloud-snow", Symbol: "🌨️"}
	case "13n":
		return Glyph{Name: "cloud-snow", Symbol: "❄️", Night: true}
	case "50d":
		return Glyph{Name: "cloud-fog", Symbol: "🌫️"}
	case "50n":
		return Glyph{Name: "cloud-fog", Symbol: "🌁", Night: true}
	default:
		return DefaultGlyph
	}
}

// IconCodes lists the codes the provider documents, day and night.
var IconCodes = []string{
	"01d", "01n", "02d", "02n", "03d", "03n", "04d", "04n", "09d",
	"09n", "10d", "10n", "11d", "11n", "13d", "13n", "50d", "50n",
}
