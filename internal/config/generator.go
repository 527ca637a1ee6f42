package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Generator renders Settings back into provision.lua source, so a resolved
// configuration can be inspected or committed as a script.
type Generator struct {
	indent string
	now    func() time.Time
}

// NewGenerator creates a new Lua script generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate renders every configurable field of s. Fields whose value came
// from a non-default layer carry a trailing comment naming that layer.
func (g *Generator) Generate(s *Settings) string {
	var buf bytes.Buffer

	buf.WriteString("-- provision.lua")
	if s.PackageName != "" {
		buf.WriteString(" for ")
		buf.WriteString(s.PackageName)
		if s.PackageVersion != "" {
			buf.WriteString("@")
			buf.WriteString(s.PackageVersion)
		}
	}
	buf.WriteString("\n-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalProvision)
	buf.WriteString(" = {\n")

	if s.RemoteBaseURL != "" {
		g.writeField(&buf, s, luaFieldRemoteBaseURL, g.quoteLuaString(s.RemoteBaseURL))
	}
	g.writeField(&buf, s, luaFieldMaxAttempts, fmt.Sprintf("%d", s.MaxAttempts))
	g.writeField(&buf, s, luaFieldTimeout, g.quoteLuaString(s.AttemptTimeout.String()))
	g.writeField(&buf, s, luaFieldCompression, g.quoteLuaString(s.Compression))
	if s.KeyringPath != "" {
		g.writeField(&buf, s, luaFieldKeyring, g.quoteLuaString(g.relativeToRoot(s, s.KeyringPath)))
	}
	g.writeField(&buf, s, luaFieldUserAgent, g.quoteLuaString(s.UserAgent))

	buf.WriteString("}\n")
	return buf.String()
}

// writeField writes one "name = value," line.
func (g *Generator) writeField(buf *bytes.Buffer, s *Settings, name, value string) {
	buf.WriteString(g.indent)
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(value)
	buf.WriteString(",")
	if source, ok := s.Sources[name]; ok {
		buf.WriteString(" -- from ")
		buf.WriteString(source)
	}
	buf.WriteString("\n")
}

// relativeToRoot shortens paths inside the package root, since scripts
// resolve relative keyring paths against it.
func (g *Generator) relativeToRoot(s *Settings, path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
