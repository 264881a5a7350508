package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
)

func testResult() *resolver.Result {
	return &resolver.Result{
		Master:         "master-pw",
		SecuritySource: "/m2/settings-security.xml",
		SettingsSource: "/m2/settings.xml",
		Credentials: []resolver.Credential{
			{Kind: resolver.KindServer, ID: "nexus", Username: "deployer", Password: "nexus-pw"},
			{
				Kind:        resolver.KindServer,
				ID:          "broken",
				Username:    "someone",
				FailedField: resolver.FieldPassword,
				Err:         errors.New("password: decryption failed: invalid padding"),
			},
			{Kind: resolver.KindServer, ID: "ssh", PrivateKey: "/keys/id_rsa", Passphrase: "phrase"},
			{Kind: resolver.KindProxy, ID: "corp", Username: "p", Password: "proxy-pw", Host: "proxy.local:3128"},
		},
	}
}

func render(t *testing.T, format string, options ...Options) string {
	t.Helper()

	r, err := New(format, options...)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Report(&buf, testResult()))
	return buf.String()
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json")
}

func TestNew_DefaultsToText(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &TextReporter{}, r)

	r, err = New("JSON")
	require.NoError(t, err)
	assert.IsType(t, &StructuredReporter{}, r)
}

func TestTextReporter(t *testing.T) {
	out := render(t, FormatText)
	separator := strings.Repeat("-", defaultSeparatorWidth)

	want := strings.Join([]string{
		"Master password is : master-pw",
		separator,
		"Credentials for server nexus are :",
		"Username : deployer",
		"Password : nexus-pw",
		separator,
		"Credentials for server broken are :",
		"Username : someone",
		"Password : <could not decrypt: password: decryption failed: invalid padding>",
		separator,
		"Credentials for server ssh are :",
		"Username : ",
		"Password : ",
		"Private key : /keys/id_rsa",
		"Passphrase : phrase",
		separator,
		"Credentials for proxy corp (proxy.local:3128) are :",
		"Username : p",
		"Password : proxy-pw",
		"",
	}, "\n")

	assert.Equal(t, want, out)
}

func TestTextReporter_ColorAndWidth(t *testing.T) {
	out := render(t, FormatText, Color(true), Width(20))

	assert.Contains(t, out, ColorFailure+"<could not decrypt")
	assert.Contains(t, out, "\n"+strings.Repeat("-", 20)+"\n")
	assert.NotContains(t, out, strings.Repeat("-", 21))

	// width never grows past the default
	out = render(t, FormatText, Width(500))
	assert.NotContains(t, out, strings.Repeat("-", defaultSeparatorWidth+1))
}

func TestTableReporter(t *testing.T) {
	out := render(t, FormatTable, Color(true))

	assert.Contains(t, out, "Master password: master-pw")
	assert.Contains(t, out, "nexus-pw")
	assert.Contains(t, out, "proxy.local:3128")
	assert.Contains(t, out, "<could not decrypt")

	// rows keep result order
	assert.Less(t, strings.Index(out, "nexus"), strings.Index(out, "broken"))
	assert.Less(t, strings.Index(out, "broken"), strings.Index(out, "corp"))
}

func TestTableReporter_CSVHasNoColor(t *testing.T) {
	out := render(t, FormatCSV, Color(true))

	assert.NotContains(t, out, "\033[")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6) // header, master, four credentials
	assert.Contains(t, lines[1], "master-pw")
}

func TestStructuredReporter_JSON(t *testing.T) {
	out := render(t, FormatJSON)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "master-pw", doc.Master)
	assert.Equal(t, "/m2/settings.xml", doc.SettingsFile)
	require.Len(t, doc.Credentials, 4)
	assert.Equal(t, "nexus-pw", doc.Credentials[0].Password)
	assert.Empty(t, doc.Credentials[0].Error)
	assert.Contains(t, doc.Credentials[1].Error, "invalid padding")
	assert.Equal(t, "proxy", doc.Credentials[3].Kind)
}

func TestStructuredReporter_TOML(t *testing.T) {
	out := render(t, FormatTOML)

	var doc Document
	_, err := toml.Decode(out, &doc)
	require.NoError(t, err)

	assert.Equal(t, "master-pw", doc.Master)
	require.Len(t, doc.Credentials, 4)
	assert.Equal(t, "ssh", doc.Credentials[2].ID)
	assert.Equal(t, "phrase", doc.Credentials[2].Passphrase)
	assert.Contains(t, doc.Credentials[1].Error, "invalid padding")
}
