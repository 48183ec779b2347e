package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDRSliceFlag(t *testing.T) {
	for name, tt := range map[string]struct {
		value string
		want  string
		err   bool
	}{
		"ipv4":            {value: "127.0.0.0/12,200.100.0.0/28", want: "127.0.0.0/12,200.100.0.0/28"},
		"spaces and ipv6": {value: " 10.0.0.0/8, ::1/128,", want: "10.0.0.0/8,::1/128"},
		"empty":           {value: "", want: ""},
		"invalid":         {value: "127.0.0.0/12,200.100.0.0/28.", err: true},
	} {
		t.Run(name, func(t *testing.T) {
			var f CIDRSliceFlag
			err := f.Set(tt.value)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
			assert.Equal(t, &f, f.Get())
		})
	}
}

func TestCIDRSliceFlagSet(t *testing.T) {
	var f CIDRSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&f, "networks", "")
	require.NoError(t, fs.Parse([]string{"-networks", "192.168.0.0/16"}))
	require.Len(t, f, 1)
	assert.Equal(t, "192.168.0.0/16", f[0].String())
}
