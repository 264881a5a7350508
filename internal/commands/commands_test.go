package commands

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/DeprecatedLuar/settings-decoder/internal/crypto"
)

const (
	testMaster   = "correct horse battery staple"
	settingsPath = "/m2/settings.xml"
	securityPath = "/m2/settings-security.xml"
)

func encrypt(t *testing.T, plain, key string) string {
	t.Helper()
	payload, err := crypto.Encrypt(plain, key)
	require.NoError(t, err)
	return crypto.Decorate(payload)
}

// setupTestFs writes a security file and a settings file with three
// servers, the second encrypted under an unrelated key
func setupTestFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	security := fmt.Sprintf("<settingsSecurity><master>%s</master></settingsSecurity>", encrypt(t, testMaster, crypto.SystemKey))
	doc := fmt.Sprintf(`<settings><servers>
  <server><id>releases</id><username>u1</username><password>%s</password></server>
  <server><id>snapshots</id><username>u2</username><password>%s</password></server>
  <server><id>thirdparty</id><username>u3</username><password>%s</password></server>
</servers></settings>`,
		encrypt(t, "first-password", testMaster),
		encrypt(t, "second-password-under-another-key", "unrelated"),
		encrypt(t, "third-password", testMaster))

	require.NoError(t, afero.WriteFile(fs, securityPath, []byte(security), 0600))
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(doc), 0600))
	return fs
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec), "expected cli.ExitCoder, got %T: %v", err, err)
	return ec.ExitCode()
}

func TestHandleDecode_PartialSuccess(t *testing.T) {
	var out bytes.Buffer
	err := HandleDecode(DecodeOptions{
		Fs:           setupTestFs(t),
		SettingsPath: settingsPath,
		SecurityPath: securityPath,
		Out:          &out,
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Master password is : "+testMaster)
	assert.Contains(t, s, "Password : first-password")
	assert.Contains(t, s, "Password : third-password")
	assert.Contains(t, s, "Credentials for server snapshots are :")
	assert.Contains(t, s, "<could not decrypt")
	assert.NotContains(t, s, "second-password")
}

func TestHandleDecode_Filter(t *testing.T) {
	var out bytes.Buffer
	err := HandleDecode(DecodeOptions{
		Fs:           setupTestFs(t),
		SettingsPath: settingsPath,
		SecurityPath: securityPath,
		Format:       "json",
		Servers:      []string{"thirdparty", "relases"},
		Out:          &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"id": "thirdparty"`)
	assert.NotContains(t, out.String(), `"id": "releases"`)
}

func TestHandleDecode_FilterNoMatch(t *testing.T) {
	err := HandleDecode(DecodeOptions{
		Fs:           setupTestFs(t),
		SettingsPath: settingsPath,
		SecurityPath: securityPath,
		Servers:      []string{"nothing-like-it"},
		Out:          &bytes.Buffer{},
	})
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestHandleDecode_MissingFiles(t *testing.T) {
	fs := setupTestFs(t)

	err := HandleDecode(DecodeOptions{Fs: fs, SettingsPath: settingsPath, SecurityPath: "/m2/missing.xml", Out: &bytes.Buffer{}})
	assert.Equal(t, ExitUsage, exitCode(t, err))
	assert.Contains(t, err.Error(), "Security file : /m2/missing.xml does not exist")

	err = HandleDecode(DecodeOptions{Fs: fs, SettingsPath: "/m2/missing.xml", SecurityPath: securityPath, Out: &bytes.Buffer{}})
	assert.Equal(t, ExitUsage, exitCode(t, err))
	assert.Contains(t, err.Error(), "Settings file : /m2/missing.xml does not exist")

	err = HandleDecode(DecodeOptions{Fs: fs, SecurityPath: securityPath, Out: &bytes.Buffer{}})
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestHandleDecode_BadFormat(t *testing.T) {
	err := HandleDecode(DecodeOptions{
		Fs:           setupTestFs(t),
		SettingsPath: settingsPath,
		SecurityPath: securityPath,
		Format:       "yaml",
		Out:          &bytes.Buffer{},
	})
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestHandleDecode_FatalErrors(t *testing.T) {
	fs := setupTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "/m2/broken.xml", []byte("<settings><servers>"), 0600))
	require.NoError(t, afero.WriteFile(fs, "/m2/nomaster.xml", []byte("<settingsSecurity/>"), 0600))

	err := HandleDecode(DecodeOptions{Fs: fs, SettingsPath: "/m2/broken.xml", SecurityPath: securityPath, Out: &bytes.Buffer{}})
	assert.Equal(t, ExitFailure, exitCode(t, err))

	err = HandleDecode(DecodeOptions{Fs: fs, SettingsPath: settingsPath, SecurityPath: "/m2/nomaster.xml", Out: &bytes.Buffer{}})
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "master")
}

func TestHandleDecrypt(t *testing.T) {
	fs := setupTestFs(t)

	cases := []struct {
		name string
		opts DecryptOptions
		want string
	}{
		{
			name: "master from security file",
			opts: DecryptOptions{SecurityPath: securityPath, Value: encrypt(t, "value-one", testMaster)},
			want: "value-one",
		},
		{
			name: "explicit key",
			opts: DecryptOptions{Key: "k3y", Value: encrypt(t, "value-two", "k3y")},
			want: "value-two",
		},
		{
			name: "system key",
			opts: DecryptOptions{Value: encrypt(t, "a-master", crypto.SystemKey)},
			want: "a-master",
		},
		{
			name: "plain value",
			opts: DecryptOptions{Key: "anything", Value: "not encrypted"},
			want: "not encrypted",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			tc.opts.Fs = fs
			tc.opts.Out = &out

			require.NoError(t, HandleDecrypt(tc.opts))
			assert.Equal(t, tc.want+"\n", out.String())
		})
	}
}

func TestHandleDecrypt_WrongKey(t *testing.T) {
	err := HandleDecrypt(DecryptOptions{
		Fs:    afero.NewMemMapFs(),
		Key:   "wrong",
		Value: encrypt(t, "a long enough secret value", "right"),
		Out:   &bytes.Buffer{},
	})
	assert.Equal(t, ExitFailure, exitCode(t, err))
}

func TestHandleDecrypt_MissingSecurityFile(t *testing.T) {
	err := HandleDecrypt(DecryptOptions{
		Fs:           afero.NewMemMapFs(),
		SecurityPath: "/nope.xml",
		Value:        "{abc=}",
		Out:          &bytes.Buffer{},
	})
	assert.Equal(t, ExitUsage, exitCode(t, err))
}
