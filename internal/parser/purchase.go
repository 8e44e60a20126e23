package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OrderNumberNotFound is the sentinel recorded when a body carries no
// recognizable order number. Absence is not a parse failure.
const OrderNumberNotFound = "Not Found"

// float64Epsilon nudges values sitting just below a rounding boundary due to
// binary floating-point representation error (e.g. 19.999999999998) over it
// before rounding. Equal to 2^-52.
const float64Epsilon = 2.220446049250313e-16

var (
	orderNumberPattern = regexp.MustCompile(`(?i)Order #\s*(\d{3}-\d{7}-\d{7})`)
	totalLinePattern   = regexp.MustCompile(`(?im)^Total`)
	// Matches bare separators too ("." / ","); ParseFloat rejects those
	// and the caller treats them as no total.
	pricePattern = regexp.MustCompile(`\$?([0-9,.]+)`)

	titleOfPrefix  = `Your Amazon.com order of "`
	titleForPrefix = `Your Amazon.com order for "`
)

// Purchase is one structured record extracted from an order-confirmation
// message. OrderTotal is nil when no total could be located, which is a soft
// non-finding rather than an error.
type Purchase struct {
	OrderDate   string
	OrderNumber string
	ItemTitle   string
	OrderTotal  *float64
	MessageID   string
}

// ExtractOrderNumber returns the first 3-7-7 digit-group order identifier
// following "Order #" in body, or OrderNumberNotFound.
func ExtractOrderNumber(body string) string {
	if m := orderNumberPattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return OrderNumberNotFound
}

// ExtractOrderTotal runs the two-phase total search: locate the first line
// beginning with "Total", then take the first numeric token (optionally
// dollar-prefixed) from that point forward. Returns nil when either phase
// finds nothing or the token does not parse as a number.
func ExtractOrderTotal(body string) *float64 {
	loc := totalLinePattern.FindStringIndex(body)
	if loc == nil {
		return nil
	}

	m := pricePattern.FindStringSubmatch(body[loc[0]:])
	if m == nil {
		return nil
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}

	rounded := RoundCents(n)
	return &rounded
}

// ExtractItemTitle derives the purchased item's title from the message
// subject by stripping the vendor's known framing phrases. Unrecognized
// subjects pass through trimmed.
func ExtractItemTitle(subject string) string {
	title := subject
	for _, prefix := range []string{titleOfPrefix, titleForPrefix} {
		if idx := strings.Index(subject, prefix); idx >= 0 {
			title = subject[idx+len(prefix):]
			// Drop the closing quote-period the vendor appends.
			title = strings.Replace(title, `".`, "", 1)
			break
		}
	}
	return strings.TrimSpace(title)
}

// RoundCents rounds to 2 decimal places with an epsilon correction applied
// first, so values like 19.999999999998 round to 20.00 rather than 19.99.
func RoundCents(n float64) float64 {
	return math.Round((n+float64Epsilon)*100) / 100
}

// ParsePurchase extracts a full purchase record from a message's plain-text
// body, subject, and timestamp. It never returns an error: a panic inside
// the heuristics yields a nil record, leaving the message unprocessed so a
// later run can retry it.
func ParsePurchase(messageID, subject, body string, date time.Time, loc *time.Location) (purchase *Purchase) {
	defer func() {
		if r := recover(); r != nil {
			purchase = nil
		}
	}()

	if loc == nil {
		loc = time.Local
	}

	return &Purchase{
		OrderDate:   date.In(loc).Format("2006-01-02"),
		OrderNumber: ExtractOrderNumber(body),
		ItemTitle:   ExtractItemTitle(subject),
		OrderTotal:  ExtractOrderTotal(body),
		MessageID:   messageID,
	}
}
