package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate a credential.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "API Key",
		Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential API key detected",
	},
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|bearer)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential authentication token detected",
	},
	{
		Name:        "Password",
		Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*['"].+['"]`),
		Description: "Potential password detected",
	},
	{
		Name:        "AWS Key",
		Pattern:     regexp.MustCompile(`(?i)(aws[_-]?access[_-]?key[_-]?id|aws[_-]?secret[_-]?access[_-]?key)\s*=\s*['"][A-Z0-9]{16,}['"]`),
		Description: "Potential AWS credentials detected",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[ps]_[a-zA-Z0-9]{36,}`),
		Description: "Potential GitHub token detected",
	},
	{
		Name:        "npm Token",
		Pattern:     regexp.MustCompile(`npm_[a-zA-Z0-9]{36,}`),
		Description: "Potential npm token detected",
	},
}

// credentialParams are query parameters that usually carry a secret.
var credentialParams = []string{"token", "access_token", "key", "sig", "signature", "x-amz-signature", "password"}

// SensitiveDataFinding represents a detected credential.
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int    // 1-based; 0 when the finding is not from a file
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans script content for hardcoded credentials.
// provision.lua ships inside the published package, so anything found
// here is readable by every installer.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line),
				})
			}
		}
	}

	return findings
}

// DetectURLCredentials reports user info or credential-looking query
// parameters in a remote base URL.
func DetectURLCredentials(raw string) []SensitiveDataFinding {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	var findings []SensitiveDataFinding
	if u.User != nil {
		findings = append(findings, SensitiveDataFinding{
			PatternName: "URL Credentials",
			Description: "Remote base URL embeds a user name or password",
			Preview:     u.Redacted(),
		})
	}

	query := u.Query()
	for _, param := range credentialParams {
		for name := range query {
			if strings.EqualFold(name, param) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: "URL Query Credential",
					Description: fmt.Sprintf("Remote base URL carries a %q query parameter", name),
					Preview:     name + "=[REDACTED]",
				})
			}
		}
	}

	return findings
}

// redactSensitiveValue creates a redacted preview of a line with sensitive data
func redactSensitiveValue(line string) string {
	eqIdx := strings.Index(line, "=")
	if eqIdx == -1 {
		if len(line) > 30 {
			return line[:30] + "... [REDACTED]"
		}
		return line + " [REDACTED]"
	}

	keyPart := strings.TrimSpace(line[:eqIdx])
	return keyPart + " = [REDACTED]"
}
