package gitproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPktLine(t *testing.T) {
	t.Parallel()

	line := PktLine("# service=git-upload-pack\n")
	// "# service=git-upload-pack\n" is 26 bytes; +4 for the length prefix = 30 = 0x1e.
	assert.Equal(t, "001e# service=git-upload-pack\n", line)
}

func TestServiceAdvertisementPreface(t *testing.T) {
	t.Parallel()

	preface := ServiceAdvertisementPreface("upload-pack")
	assert.Equal(t, "001e# service=git-upload-pack\n0000", string(preface))
}

func TestGetServiceFromQueryString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "upload-pack", query: "service=git-upload-pack", want: "upload-pack"},
		{name: "receive-pack with other params", query: "a=b&service=git-receive-pack&c=d", want: "receive-pack"},
		{name: "missing prefix", query: "service=upload-pack", want: ""},
		{name: "absent", query: "", want: ""},
		{name: "unrelated params only", query: "foo=bar", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetServiceFromQueryString(tt.query))
		})
	}
}

func TestIsValidService(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidService("upload-pack"))
	assert.True(t, IsValidService("receive-pack"))
	assert.False(t, IsValidService("archive"))
	assert.False(t, IsValidService(""))
}
