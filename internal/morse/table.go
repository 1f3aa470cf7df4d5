package morse

import (
	"strings"
	"unicode"
)

// Element symbols used in code strings.
const (
	Dit = '.'
	Dah = '-'
)

// codes is the ITU character table. The decoder's reverse table is derived
// from it, so every entry here round-trips.
var codes = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'.': ".-.-.-", ',': "--..--", '?': "..--..", '/': "-..-.",
	'+': ".-.-.", '=': "-...-", '-': "-....-", '@': ".--.-.",
	'(': "-.--.", ')': "-.--.-", '\'': ".----.",
}

// prosigns are sent as one run of elements with no character gap inside.
var prosigns = map[string]string{
	"<AR>":  ".-.-.",
	"<SK>":  "...-.-",
	"<KN>":  "-.--.",
	"<BK>":  "-...-.-",
	"<SOS>": "...---...",
	"<HH>":  "........",
}

// decodes maps a code string back to its text. Character codes win over
// prosign codes, so AR decodes as '+' and KN as '('.
var decodes = buildDecodes()

func buildDecodes() map[string]string {
	m := make(map[string]string, len(codes)+len(prosigns))
	for token, code := range prosigns {
		m[code] = token
	}
	for r, code := range codes {
		m[code] = string(r)
	}
	return m
}

// Code returns the dot/dash pattern for r, case-insensitively.
func Code(r rune) (string, bool) {
	c, ok := codes[unicode.ToUpper(r)]
	return c, ok
}

// ProsignCode returns the combined pattern for a prosign token such as
// "<SK>". The bare "+" is accepted as an alias for "<AR>".
func ProsignCode(token string) (string, bool) {
	if token == "+" {
		token = "<AR>"
	}
	c, ok := prosigns[strings.ToUpper(token)]
	return c, ok
}

// Lookup decodes a code string. Unknown codes report false.
func Lookup(code string) (string, bool) {
	s, ok := decodes[code]
	return s, ok
}

func isProsignToken(word string) bool {
	return word == "+" || (len(word) > 2 && strings.HasPrefix(word, "<") && strings.HasSuffix(word, ">"))
}
