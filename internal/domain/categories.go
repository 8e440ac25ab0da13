package domain

import "strings"

// categories maps Data API video category names to their ids.
var categories = map[string]string{
	"film & animation":      "1",
	"autos & vehicles":      "2",
	"music":                 "10",
	"pets & animals":        "15",
	"sports":                "17",
	"short movies":          "18",
	"travel & events":       "19",
	"gaming":                "20",
	"videoblogging":         "21",
	"people & blogs":        "22",
	"comedy":                "23", // the video category; 34 is the movie-catalogue Comedy id
	"entertainment":         "24",
	"news & politics":       "25",
	"news":                  "25",
	"howto & style":         "26",
	"education":             "27",
	"science & technology":  "28",
	"nonprofits & activism": "29",
	"movies":                "30",
	"anime/animation":       "31",
	"action/adventure":      "32",
	"classics":              "33",
	"documentary":           "35",
	"drama":                 "36",
	"family":                "37",
	"foreign":               "38",
	"horror":                "39",
	"sci-fi/fantasy":        "40",
	"thriller":              "41",
	"shorts":                "42",
	"shows":                 "43",
	"trailers":              "44",
}

// CategoryID resolves a category name (or a numeric id) to a category id.
// "All", empty and unknown names resolve to "", meaning no category filter.
func CategoryID(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "all" {
		return ""
	}
	if id, ok := categories[n]; ok {
		return id
	}
	for _, id := range categories {
		if id == n {
			return id
		}
	}
	return ""
}
