package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *Directive
	}{
		{name: "plain line", line: "vec3 color;", want: nil},
		{name: "native preprocessor", line: "#ifdef FOO", want: nil},
		{name: "version", line: "#version 410 core", want: nil},
		{name: "include", line: `#include "lib/light.glsl"`, want: &Directive{Type: DirectiveInclude, Args: []string{"lib/light.glsl"}, Line: 3}},
		{name: "indented include", line: "\t  #include \"a.glsl\"\r", want: &Directive{Type: DirectiveInclude, Args: []string{"a.glsl"}, Line: 3}},
		{name: "spaced hash", line: `#  include "a.glsl"`, want: &Directive{Type: DirectiveInclude, Args: []string{"a.glsl"}, Line: 3}},
		{name: "alias", line: "#alias COLOR vec4(1.0, 0.5,  0.0, 1.0)", want: &Directive{Type: DirectiveAlias, Args: []string{"COLOR", "vec4(1.0, 0.5,  0.0, 1.0)"}, Line: 3}},
		{name: "keyword prefix only", line: "#includes", want: nil},
		{name: "commented out", line: `// #include "a.glsl"`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDirective(tt.line, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDirectiveMalformed(t *testing.T) {
	for _, line := range []string{
		"#include lib/light.glsl",
		`#include ""`,
		`#include "unterminated`,
		"#alias ONLYNAME",
	} {
		_, err := parseDirective(line, 7)
		assert.Error(t, err, line)
		if err != nil {
			assert.Contains(t, err.Error(), "line 7")
		}
	}
}
