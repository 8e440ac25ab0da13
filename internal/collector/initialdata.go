package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/qepting91/tubescout/internal/domain"
)

// initialDataRE marks the start of the embedded page state.
var initialDataRE = regexp.MustCompile(`var\s+ytInitialData\s*=\s*`)

// extractInitialData finds the ytInitialData object inside the page's <script>
// elements and decodes it into v.
func extractInitialData(page io.Reader, v any) error {
	doc, err := html.Parse(page)
	if err != nil {
		return fmt.Errorf("%w: parse markup: %v", domain.ErrParse, err)
	}

	var blob []byte
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if blob != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			text := n.FirstChild.Data
			if loc := initialDataRE.FindStringIndex(text); loc != nil {
				blob = extractJSONObject([]byte(strings.TrimLeft(text[loc[1]:], " \t\r\n")))
				if blob == nil {
					blob = []byte{}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(blob) == 0 {
		return fmt.Errorf("%w: ytInitialData not found", domain.ErrParse)
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("%w: decode ytInitialData: %v", domain.ErrParse, err)
	}
	return nil
}

// extractJSONObject returns the complete JSON object starting at b[0] by tracking
// brace depth outside of string literals. It returns nil when the object is unterminated.
func extractJSONObject(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr, escaped := false, false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// Shapes of the parts of ytInitialData we read.

type textRuns struct {
	Runs       []struct{ Text string } `json:"runs"`
	SimpleText string                  `json:"simpleText"`
}

func (t textRuns) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var sb strings.Builder
	for _, r := range t.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

type videoRenderer struct {
	VideoID           string    `json:"videoId"`
	Title             textRuns  `json:"title"`
	PublishedTimeText *textRuns `json:"publishedTimeText"`
	ViewCountText     *textRuns `json:"viewCountText"`
}

type searchPage struct {
	Contents *struct {
		TwoColumnSearchResultsRenderer *struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type watchPage struct {
	Contents *struct {
		TwoColumnWatchNextResults *struct {
			Results struct {
				Results struct {
					Contents []struct {
						VideoPrimaryInfoRenderer *struct {
							Title     textRuns `json:"title"`
							ViewCount *struct {
								VideoViewCountRenderer *struct {
									ViewCount textRuns `json:"viewCount"`
								} `json:"videoViewCountRenderer"`
							} `json:"viewCount"`
						} `json:"videoPrimaryInfoRenderer"`
					} `json:"contents"`
				} `json:"results"`
			} `json:"results"`
		} `json:"twoColumnWatchNextResults"`
	} `json:"contents"`
}

var digitsRE = regexp.MustCompile(`\d`)

// parseCount reads "1,234,567 views" style text. It returns nil when no digits are present.
func parseCount(s string) *int64 {
	ds := digitsRE.FindAllString(s, -1)
	if len(ds) == 0 {
		return nil
	}
	n, err := strconv.ParseInt(strings.Join(ds, ""), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
