package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxSimilarity  = 0.7
	maxBcryptBytes = 72
)

var nonWord = regexp.MustCompile(`\W+`)

// commonPasswords is a short list of the most frequently leaked passwords.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 password 12345678 qwerty 123456789 12345 1234 111111 1234567 dragon
		123123 baseball abc123 football monkey letmein 696969 shadow master 666666
		qwertyuiop 123321 mustang 1234567890 michael 654321 superman 1qaz2wsx 7777777 121212
		000000 qazwsx 123qwe killer trustno1 jordan jennifer zxcvbnm asdfgh hunter
		buster soccer harley batman andrew tigger sunshine iloveyou 2000 charlie
		robert thomas hockey ranger daniel starwars klaster 112233 george computer
		michelle jessica pepper 1111 zxcvbn 555555 11111111 131313 freedom 777777
		pass maggie 159753 aaaaaa ginger princess joshua cheese amanda summer
		love ashley nicole chelsea biteme matthew access yankees 987654321 dallas
		austin thunder taylor matrix minecraft welcome welcome1 password1 password123 admin
		admin123 passw0rd p@ssw0rd qwerty123 iloveyou1 changeme secret letmein1 abcd1234
		aa12345678 qwe123 1q2w3e4r 1q2w3e4r5t zaq12wsx football1 baseball1 sunshine1 trustno11
	`) {
		commonPasswords[p] = struct{}{}
	}
}

type passwordContext struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// checkPassword returns the policy violations for password, empty when it
// is acceptable.
func checkPassword(password string, minLen int, pc passwordContext) []string {
	var problems []string

	if len([]rune(password)) < minLen {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minLen))
	}
	if len(password) > maxBcryptBytes {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", maxBcryptBytes))
	}
	if attr := similarAttribute(password, pc); attr != "" {
		problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attr))
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func similarAttribute(password string, pc passwordContext) string {
	attrs := []struct {
		name  string
		value string
	}{
		{"username", pc.Username},
		{"first name", pc.FirstName},
		{"last name", pc.LastName},
		{"email address", pc.Email},
	}

	pw := strings.ToLower(password)
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		parts := append(nonWord.Split(a.value, -1), a.value)
		for _, part := range parts {
			part = strings.ToLower(part)
			if part == "" || tooLongToCompare(pw, part) {
				continue
			}
			if quickRatio(pw, part) >= maxSimilarity {
				return a.name
			}
		}
	}
	return ""
}

// tooLongToCompare skips attribute parts so short relative to the password
// that they can never reach maxSimilarity.
func tooLongToCompare(password, part string) bool {
	pwLen := float64(len([]rune(password)))
	partLen := float64(len([]rune(part)))
	return pwLen >= 10*partLen && partLen < maxSimilarity/2*pwLen
}

// quickRatio is an upper bound on sequence similarity: 2*M/T where M is the
// size of the multiset intersection of characters.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
