package form

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
)

// DefaultPhoneRegion is used when a number is entered without a country code.
const DefaultPhoneRegion = "US"

var ErrInvalidEmail = errors.New("invalid email address")

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s\-.']+$`)

	// 12-hour with minutes, 24-hour, and bare hour with meridiem.
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(0?[1-9]|1[0-2]):[0-5][0-9]\s?(AM|PM)$`),
		regexp.MustCompile(`^(0?[0-9]|1[0-9]|2[0-3]):[0-5][0-9]$`),
		regexp.MustCompile(`^(0?[1-9]|1[0-2])\s?(AM|PM)$`),
	}
)

// Validators holds the per-field checks. Each method returns the normalized
// value, or a rejection message for the user.
type Validators struct {
	Resolver    *dateresolver.Resolver
	PhoneRegion string
	// CheckDomain, when set, is called with the ASCII domain of an otherwise
	// valid email address.
	CheckDomain func(domain string) error
}

func (v *Validators) Name(input string) (string, string) {
	name := strings.TrimSpace(input)
	if utf8.RuneCountInString(name) < 2 {
		return "", msgNameTooShort
	}
	if !namePattern.MatchString(name) {
		return "", msgNameCharset
	}
	return name, ""
}

func (v *Validators) Phone(input string) (string, string) {
	region := v.PhoneRegion
	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(strings.TrimSpace(input), region)
	if err != nil {
		return "", msgPhoneUnparsed
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", msgPhoneInvalid
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL), ""
}

func (v *Validators) Email(input string) (string, string) {
	email, err := NormalizeEmail(input)
	if err != nil {
		return "", msgEmailInvalid
	}
	if v.CheckDomain != nil {
		domain := email[strings.LastIndex(email, "@")+1:]
		if err := v.CheckDomain(domain); err != nil {
			return "", msgEmailInvalid
		}
	}
	return email, ""
}

func (v *Validators) AppointmentDate(input string) (string, string) {
	resolver := v.Resolver
	if resolver == nil {
		resolver = dateresolver.New()
	}

	date, ok := resolver.Resolve(input)
	if !ok {
		return "", msgDateUnresolved
	}
	if valid, reason := resolver.Validate(date); !valid {
		return "", msgDateInvalid(reason)
	}
	return dateresolver.Format(date), ""
}

func (v *Validators) AppointmentTime(input string) (string, string) {
	t := strings.ToUpper(strings.TrimSpace(input))
	for _, p := range timePatterns {
		if p.MatchString(t) {
			return t, ""
		}
	}
	return "", msgTimeInvalid
}

func (v *Validators) Purpose(input string) (string, string) {
	purpose := strings.TrimSpace(input)
	if utf8.RuneCountInString(purpose) < 5 {
		return "", msgPurposeShort
	}
	return purpose, ""
}

// NormalizeEmail validates the syntax and domain shape of an address and
// returns it lowercased with an ASCII (IDNA) domain.
func NormalizeEmail(input string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input))
	if email == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" || len(local) > 64 {
		return "", ErrInvalidEmail
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil || len(ascii) > 253 {
		return "", ErrInvalidEmail
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", ErrInvalidEmail
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return "", ErrInvalidEmail
		}
	}
	if !validTLD(labels[len(labels)-1]) {
		return "", ErrInvalidEmail
	}

	return local + "@" + ascii, nil
}

func validTLD(tld string) bool {
	if strings.HasPrefix(tld, "xn--") {
		return true
	}
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// DNSDeliverability accepts a domain that publishes MX records or, failing
// that, resolves to an address.
func DNSDeliverability(domain string) error {
	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return nil
	}
	if hosts, err := net.LookupHost(domain); err == nil && len(hosts) > 0 {
		return nil
	}
	return fmt.Errorf("%w: domain %s does not accept mail", ErrInvalidEmail, domain)
}
