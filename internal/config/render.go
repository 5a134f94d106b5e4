package config

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/lox/chatjack/internal/fileutil"
)

// Render writes c as HCL. The twitch token is never written out.
func Render(c *Config) []byte {
	out := *c
	if c.Twitch != nil {
		twitch := *c.Twitch
		twitch.Token = ""
		out.Twitch = &twitch
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(&out, f.Body())
	return hclwrite.Format(f.Bytes())
}

// WriteDefault writes the default configuration to path. An existing
// file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	return fileutil.WriteNew(path, Render(Default()), 0o644, overwrite)
}
