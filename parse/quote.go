package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// unquoteString returns the value of a Twig string literal, given with its
// surrounding single or double quotes.
//
// Recognized escapes are \n \r \t \v \f \e \b, \uNNNN, and a backslash before
// a backslash or either quote character.
func unquoteString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '\'' && lit[0] != '"') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("malformed string literal %s", lit)
	}
	var body = lit[1 : len(lit)-1]
	if strings.IndexByte(body, '\\') == -1 {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for len(body) > 0 {
		var i = strings.IndexByte(body, '\\')
		if i == -1 {
			b.WriteString(body)
			break
		}
		b.WriteString(body[:i])
		if i+1 == len(body) {
			return "", fmt.Errorf("string literal %s ends in a backslash", lit)
		}

		var c = body[i+1]
		body = body[i+2:]
		switch c {
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'e':
			b.WriteByte('\x1b')
		case 'b':
			b.WriteByte('\b')
		case 'u':
			if len(body) < 4 {
				return "", fmt.Errorf("invalid unicode escape in %s, expected \\uNNNN", lit)
			}
			var code, err = strconv.ParseUint(body[:4], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape in %s, expected \\uNNNN", lit)
			}
			b.WriteRune(rune(code))
			body = body[4:]
		default:
			return "", fmt.Errorf("unknown escape \\%c in %s", c, lit)
		}
	}
	return b.String(), nil
}
