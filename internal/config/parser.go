package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
)

// Script holds the values a provision.lua script set. Zero values mean
// the script left the field alone.
type Script struct {
	RemoteBaseURL  string
	MaxAttempts    int
	AttemptTimeout time.Duration
	Compression    string
	Keyring        string
	UserAgent      string

	// Findings lists credentials spotted in the script source.
	Findings []SensitiveDataFinding
}

// apply overlays the script's values onto s.
func (sc *Script) apply(s *Settings) {
	if sc.RemoteBaseURL != "" {
		s.RemoteBaseURL = sc.RemoteBaseURL
		s.markSource(luaFieldRemoteBaseURL, SourceScript)
	}
	if sc.MaxAttempts != 0 {
		s.MaxAttempts = sc.MaxAttempts
		s.markSource(luaFieldMaxAttempts, SourceScript)
	}
	if sc.AttemptTimeout != 0 {
		s.AttemptTimeout = sc.AttemptTimeout
		s.markSource(luaFieldTimeout, SourceScript)
	}
	if sc.Compression != "" {
		s.Compression = sc.Compression
		s.markSource(luaFieldCompression, SourceScript)
	}
	if sc.Keyring != "" {
		s.KeyringPath = sc.Keyring
		s.markSource(luaFieldKeyring, SourceScript)
	}
	if sc.UserAgent != "" {
		s.UserAgent = sc.UserAgent
		s.markSource(luaFieldUserAgent, SourceScript)
	}
}

// Parser runs provision.lua scripts with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a script parser. A nil detector leaves the platform
// table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile runs the script at path. A missing file returns (nil, nil).
func (p *Parser) ParseFile(ctx context.Context, path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxScriptSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > MaxScriptSize {
		return nil, &ParseError{
			Message: "script too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxScriptSize),
		}
	}

	script, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, err
	}
	script.Findings = DetectSensitiveData(string(data))
	return script, nil
}

// ParseString runs Lua code and extracts the global provision table.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Script, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultScriptTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ParseError{Message: "script timed out", Detail: ctxErr.Error()}
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractScript(L)
}

// ParseError represents a script error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractScript reads the global provision table. A script that does not
// define one contributes nothing.
func extractScript(L *lua.LState) (*Script, error) {
	value := L.GetGlobal(luaGlobalProvision)
	switch value.Type() {
	case lua.LTNil:
		return &Script{}, nil
	case lua.LTTable:
	default:
		return nil, &ParseError{
			Message: "invalid 'provision' table",
			Detail:  fmt.Sprintf("expected table, got %s", value.Type()),
		}
	}

	table := value.(*lua.LTable)
	script := &Script{}
	var err error

	if script.RemoteBaseURL, err = stringField(table, luaFieldRemoteBaseURL); err != nil {
		return nil, err
	}
	if script.Compression, err = stringField(table, luaFieldCompression); err != nil {
		return nil, err
	}
	if script.Keyring, err = stringField(table, luaFieldKeyring); err != nil {
		return nil, err
	}
	if script.UserAgent, err = stringField(table, luaFieldUserAgent); err != nil {
		return nil, err
	}
	if script.MaxAttempts, err = intField(table, luaFieldMaxAttempts); err != nil {
		return nil, err
	}
	if script.AttemptTimeout, err = durationField(table, luaFieldTimeout); err != nil {
		return nil, err
	}

	return script, nil
}

func fieldError(field, format string, args ...any) error {
	return &ParseError{
		Message: "invalid 'provision' table",
		Detail:  field + ": " + fmt.Sprintf(format, args...),
	}
}

// stringField returns a string field; nil (e.g. from a platform.when that
// did not match) counts as unset.
func stringField(table *lua.LTable, field string) (string, error) {
	value := table.RawGetString(field)
	switch value.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return strings.TrimSpace(value.String()), nil
	default:
		return "", fieldError(field, "expected string, got %s", value.Type())
	}
}

func intField(table *lua.LTable, field string) (int, error) {
	value := table.RawGetString(field)
	switch value.Type() {
	case lua.LTNil:
		return 0, nil
	case lua.LTNumber:
		n := float64(lua.LVAsNumber(value))
		if n != math.Trunc(n) || n < 1 || n > MaxAttemptsLimit {
			return 0, fieldError(field, "expected a whole number between 1 and %d, got %v", MaxAttemptsLimit, n)
		}
		return int(n), nil
	default:
		return 0, fieldError(field, "expected number, got %s", value.Type())
	}
}

// durationField accepts a Go duration string ("30s", "1m30s") or a number
// of seconds.
func durationField(table *lua.LTable, field string) (time.Duration, error) {
	value := table.RawGetString(field)
	switch value.Type() {
	case lua.LTNil:
		return 0, nil
	case lua.LTNumber:
		seconds := float64(lua.LVAsNumber(value))
		if seconds <= 0 {
			return 0, fieldError(field, "must be positive, got %v", seconds)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	case lua.LTString:
		d, err := parseDuration(value.String())
		if err != nil {
			return 0, fieldError(field, "%v", err)
		}
		return d, nil
	default:
		return 0, fieldError(field, "expected duration string or seconds, got %s", value.Type())
	}
}

// FormatError formats an error for user display. Outside verbose mode the
// Lua stack traceback is dropped.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
