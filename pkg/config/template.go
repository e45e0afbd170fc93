package config

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# gslint configuration
#
# lint_cmd              linter executable; "" disables linting
# lint_args             arguments placed before the file names
# lint_timeout          quiet period after an edit, in milliseconds
# lint_process_timeout  upper bound for one linter run, in milliseconds
# extensions            files linted together with the edited one`
}

// GenerateTemplate renders the default configuration in the given format,
// "yaml" or "toml", preceded by the commented header.
func GenerateTemplate(format string) ([]byte, error) {
	cfg := NewConfig()

	var body []byte
	var err error
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		body, err = cfg.ToYAML()
	case "toml":
		body, err = cfg.ToTOML()
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString("\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}
