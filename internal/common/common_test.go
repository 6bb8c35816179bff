package common

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	v := map[string]any{"pair": "JPY_USD", "rate": 0.0067}

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, "", v))
	assert.Equal(t, "pair: JPY_USD\nrate: 0.0067\n", buf.String())

	buf.Reset()
	require.NoError(t, Emit(&buf, "json", v))
	assert.JSONEq(t, `{"pair":"JPY_USD","rate":0.0067}`, buf.String())

	err := Emit(&buf, "toml", v)
	assert.Equal(t, 1, ExitCode(err))
}

func TestSanitizeAndValidateURLs(t *testing.T) {
	good, bad := SanitizeAndValidateURLs([]string{
		" https://shop.example/cart, ",
		"[docs](https://docs.example/a)",
		"http://localhost:8080/x",
		"ftp://files.example",
		"https://bad host.example",
		"",
	})
	assert.Equal(t, []string{"https://shop.example/cart", "https://docs.example/a", "http://localhost:8080/x"}, good)
	assert.Len(t, bad, 3)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, ExitCode(fmt.Errorf("wrapped: %w", Usagef("bad %s", "flag"))))
	assert.Equal(t, 2, ExitCode(errors.New("boom")))
}
