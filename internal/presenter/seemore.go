package presenter

import "strings"

const (
	seeMorePadding = 500
	zeroWidthSpace = "\u200b"
)

// withSeeMore puts header on the first line and pads it with zero-width
// spaces so KakaoTalk folds body behind '전체보기'.
func withSeeMore(header, body string) string {
	body = stripLeadingHeader(body, header)
	if strings.TrimSpace(body) == "" {
		return strings.TrimSpace(header)
	}
	header = strings.TrimSpace(header)

	var b strings.Builder
	b.Grow(len(header) + len(body) + seeMorePadding*len(zeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(zeroWidthSpace, seeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

func stripLeadingHeader(text, header string) string {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(text, header) {
		return text
	}
	return strings.TrimLeft(strings.TrimPrefix(text, header), "\r\n")
}
