package bencode

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var marshalTests = []struct {
	input    interface{}
	expected string
}{
	{int(42), "i42e"},
	{int(-42), "i-42e"},
	{uint(43), "i43e"},
	{int64(44), "i44e"},
	{uint64(45), "i45e"},
	{int16(44), "i44e"},
	{uint16(45), "i45e"},
	{int32(44), "i44e"},
	{uint32(45), "i45e"},

	{"example", "7:example"},
	{[]byte("example"), "7:example"},
	{[]byte{}, "0:"},
	{[]byte("i\x00p"), "3:i\x00p"},
	{30 * time.Minute, "i1800e"},

	{[]string{"one", "two"}, "l3:one3:twoe"},
	{[]interface{}{"one", "two"}, "l3:one3:twoe"},
	{List{"one", uint32(2)}, "l3:onei2ee"},
	{[]string{}, "le"},

	// Keys come out sorted regardless of insertion order.
	{Dict{"two": "bb", "one": "aa"}, "d3:one2:aa3:two2:bbe"},
	{map[string]interface{}{"one": "aa", "two": "bb"}, "d3:one2:aa3:two2:bbe"},
	{Dict{}, "de"},
	{[]Dict{{"a": "b"}, {"c": "d"}}, "ld1:a1:bed1:c1:dee"},
	{Dict{"outer": Dict{"inner": uint32(1)}}, "d5:outerd5:inneri1eee"},
}

func TestMarshal(t *testing.T) {
	for _, test := range marshalTests {
		got, err := Marshal(test.input)
		assert.Nil(t, err, "marshal should not fail")
		assert.Equal(t, test.expected, string(got))
	}
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Marshal(struct{}{})
	assert.NotNil(t, err)
}

type selfMarshaler struct{}

func (selfMarshaler) MarshalBencode() ([]byte, error) { return []byte("4:self"), nil }

func TestMarshaler(t *testing.T) {
	got, err := Marshal(Dict{"m": selfMarshaler{}})
	assert.Nil(t, err)
	assert.Equal(t, "d1:m4:selfe", string(got))
}

func BenchmarkMarshalScalar(b *testing.B) {
	buf := &bytes.Buffer{}
	encoder := NewEncoder(buf)

	for i := 0; i < b.N; i++ {
		encoder.Encode("test")
		encoder.Encode(123)
	}
}

func BenchmarkMarshalLarge(b *testing.B) {
	data := map[string]interface{}{
		"k1": []string{"a", "b", "c"},
		"k2": 42,
		"k3": "val",
		"k4": uint(42),
	}

	buf := &bytes.Buffer{}
	encoder := NewEncoder(buf)

	for i := 0; i < b.N; i++ {
		encoder.Encode(data)
	}
}
