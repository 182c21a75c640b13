package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

var reCharset = regexp.MustCompile(`(?i)charset=["']?([\w-]+)`)

// decodeCharset converts data from the declared charset to UTF-8.
func decodeCharset(data []byte, charset string) ([]byte, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return data, nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", charset, err)
	}
	return decoded, nil
}

// hOCR classes that carry one visual line of text.
var lineClasses = []string{"ocr_line", "ocr_textfloat", "ocr_header", "ocr_caption"}

// ParseHOCR converts tesseract hOCR output into line fragments in document order.
// A page with no text yields an empty slice; input without an ocr_page is an error.
func ParseHOCR(data []byte) ([]Fragment, error) {
	if m := reCharset.FindSubmatch(data); m != nil {
		decoded, err := decodeCharset(data, string(m[1]))
		if err != nil {
			return nil, err
		}
		data = decoded
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	frags := []Fragment{}
	pages := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			class := attr(n, "class")
			if hasClass(class, "ocr_page") {
				pages++
			}
			if isLine(class) {
				if f, ok := lineFragment(n); ok {
					frags = append(frags, f)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if pages == 0 {
		return nil, errors.New("no ocr_page elements found in hOCR data")
	}
	return frags, nil
}

func lineFragment(n *html.Node) (Fragment, bool) {
	bbox, ok := parseBBox(attr(n, "title"))
	if !ok {
		return Fragment{}, false
	}

	var words []string
	var confSum float64
	var confN int
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(attr(c, "class"), "ocrx_word") {
			w := strings.TrimSpace(textContent(c))
			if w != "" {
				words = append(words, w)
				if v, ok := titleProps(attr(c, "title"))["x_wconf"]; ok && len(v) > 0 {
					if f, err := strconv.ParseFloat(v[0], 64); err == nil {
						confSum += f
						confN++
					}
				}
			}
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(n)

	// older hOCR without word spans
	if len(words) == 0 {
		if t := strings.Join(strings.Fields(textContent(n)), " "); t != "" {
			words = []string{t}
		}
	}
	text := CleanLine(strings.Join(words, " "))
	if text == "" {
		return Fragment{}, false
	}

	f := Fragment{Text: text, BBox: bbox}
	if confN > 0 {
		f.Confidence = confSum / float64(confN)
	}
	return f, true
}

// titleProps splits an hOCR title such as "bbox 100 200 300 400; x_wconf 95".
func titleProps(title string) map[string][]string {
	out := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			out[items[0]] = items[1:]
		}
	}
	return out
}

func parseBBox(title string) ([4]float64, bool) {
	var bb [4]float64
	v, ok := titleProps(title)["bbox"]
	if !ok || len(v) < 4 {
		return bb, false
	}
	for i := 0; i < 4; i++ {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return bb, false
		}
		bb[i] = f
	}
	return bb, true
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class, want string) bool {
	for _, c := range strings.Fields(class) {
		if c == want {
			return true
		}
	}
	return false
}

func isLine(class string) bool {
	for _, lc := range lineClasses {
		if hasClass(class, lc) {
			return true
		}
	}
	return false
}
