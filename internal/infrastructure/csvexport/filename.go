package csvexport

import (
	"strconv"
	"strings"
	"time"
)

// dateCodes maps the %X placeholders accepted in filename templates to Go
// time layouts. The letters follow the PHP date() convention ERP operators
// already use in their configurations.
var dateCodes = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'h': "03",
	'i': "04",
	's': "05",
	'M': "Jan",
	'F': "January",
	'l': "Monday",
	'j': "2",
	'n': "1",
	'g': "3",
	'A': "PM",
	'a': "pm",
}

// ExpandTemplate replaces every recognized %X code in template with the
// corresponding part of now. Unknown codes, a trailing % and all other text
// are copied unchanged.
func ExpandTemplate(template string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(template) + 8)

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}

		code := template[i+1]
		if code == 'G' {
			b.WriteString(strconv.Itoa(now.Hour()))
			i++
			continue
		}
		layout, ok := dateCodes[code]
		if !ok {
			b.WriteByte(c)
			continue
		}
		b.WriteString(now.Format(layout))
		i++
	}

	return b.String()
}
