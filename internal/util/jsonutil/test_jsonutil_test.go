package jsonutil

import (
	"testing"

	"catalognorm/internal/tester"
)

func TestPayload(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{`"{\"a\":1}"`, `{"a":1}`},
		{`"` + "```json\\n{\\\"a\\\":1}\\n```" + `"`, `{"a":1}`},
	}
	for _, c := range cases {
		got, err := Payload(c.in)
		tester.NoErr(t, err, c.in)
		tester.Eq(t, string(got), c.want, c.in)
	}
}

func TestPayload_Rejects(t *testing.T) {
	for _, in := range []string{"", "null", "[1]", `"text"`, "{broken", "Sure! here it is"} {
		_, err := Payload(in)
		tester.True(t, err == ErrNoPayload, in)
	}
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"d": "<b>&</b>"})
	tester.NoErr(t, err)
	tester.Eq(t, string(b), `{"d":"<b>&</b>"}`)
}
