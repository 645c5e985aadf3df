// ABOUTME: Reflection-free JSON encoding of Input for the status command's stdin
// ABOUTME: Field order and names are the wire format read by user scripts

package statusline

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
)

var _ easyjson.Marshaler = Input{}

// MarshalEasyJSON writes the Input object to w.
func (in Input) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"command":`)
	w.String(in.Command)
	w.RawString(`,"running":`)
	w.Bool(in.Running)
	w.RawString(`,"elapsed_ms":`)
	w.Int64(in.ElapsedMS)
	w.RawString(`,"lines":`)
	w.Int64(in.Lines)
	w.RawString(`,"bytes":`)
	w.Int64(in.Bytes)
	w.RawString(`,"exit_code":`)
	if in.ExitCode == nil {
		w.RawString("null")
	} else {
		w.Int(*in.ExitCode)
	}
	if in.CWD != "" {
		w.RawString(`,"cwd":`)
		w.String(in.CWD)
	}
	if len(in.Args) > 0 {
		w.RawString(`,"args":[`)
		for i, a := range in.Args {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(a)
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (in Input) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	in.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}
