package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/internal/logging"
)

func TestAccountList(t *testing.T) {
	var l accountList
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&l, "user", "")

	require.NoError(t, fs.Parse([]string{"-user", "alice:pw", "-user", "bob:with:colon"}))
	assert.Equal(t, accountList{{"alice", "pw"}, {"bob", "with:colon"}}, l)
	assert.Equal(t, "alice,bob", l.String())

	assert.Error(t, l.Set("nopassword"))
	assert.Error(t, l.Set(":pw"))
}

func TestRunRejectsBadOptions(t *testing.T) {
	base := options{listen: "127.0.0.1:0", strength: 1024, logLevel: "info", logFormat: "json"}

	tests := []struct {
		name   string
		modify func(*options)
	}{
		{"log level", func(o *options) { o.logLevel = "loud" }},
		{"log format", func(o *options) { o.logFormat = "xml" }},
		{"strength", func(o *options) { o.strength = 1000 }},
		{"listen address", func(o *options) { o.listen = "not an address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.modify(&o)
			assert.Error(t, run(o, logging.Discard()))
		})
	}
}
