package series

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human-readable listing of the session's records: the schema,
// the record count, then one tuple per record.
func Dump(w io.Writer, s *Session) error {
	bw := bufio.NewWriter(w)
	records := s.Records()

	fmt.Fprintf(bw, "[%s]\n", strings.Join(Schema(), ", "))
	fmt.Fprintf(bw, "%d\n", len(records))
	for _, r := range records {
		fmt.Fprintf(bw, "(%s, %s, %s, %s, %s, %s, %q, %q, %q, %s, %s, %q)\n",
			ftoa(r.Open), ftoa(r.Close), ftoa(r.High), ftoa(r.Low),
			ftoa(r.Volume), ftoa(r.Amount),
			r.Datetime, r.Date, r.Code,
			ftoa(r.DateStamp), ftoa(r.TimeStamp), r.Type)
	}
	return bw.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
