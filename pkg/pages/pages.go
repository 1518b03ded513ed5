package pages

import (
	"embed"
	"html/template"
)

// Template names, as used with gin's c.HTML.
const (
	Index    = "index.html"
	Intro    = "intro.html"
	Videos   = "videos.html"
	Outro    = "outro.html"
	ThankYou = "thankyou.html"
	NotFound = "404.html"
	Error    = "error.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Load parses every embedded page template.
func Load() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// Data is passed to every template. Only the fields a page needs are set.
type Data struct {
	BasePath string
	Key      string

	ErrorMessage string
	InfoMessage  string

	IntroVideoURL string

	Screen     int
	MaxScreens int
	VideoA     Video
	VideoB     Video

	Questions []OutroQuestion
}

type Video struct {
	Position int
	ID       string
	URL      string
}
