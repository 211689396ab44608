//go:build jsonv2

package output

import (
	"encoding/json/jsontext"
	jsonv2 "encoding/json/v2"
	"io"
)

func encodeJSON(w io.Writer, value any) error {
	data, err := jsonv2.Marshal(value,
		jsontext.WithIndent("  "),
		jsontext.EscapeForHTML(false),
	)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
