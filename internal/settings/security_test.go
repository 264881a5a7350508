package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSecurity(t *testing.T) {
	fs := setupTestFs(t, map[string]string{
		"/m2/settings-security.xml": `<settingsSecurity>
  <master>{1wQaa6S/o8MH7FnaTNL53XmhT5O0SEGXQi3gC49o6OY=}</master>
</settingsSecurity>`,
	})

	sec, err := LoadSecurity(fs, "/m2/settings-security.xml")
	require.NoError(t, err)

	assert.True(t, sec.Master.Encrypted())
	assert.Equal(t, "1wQaa6S/o8MH7FnaTNL53XmhT5O0SEGXQi3gC49o6OY=", sec.Master.Payload())
	assert.Equal(t, "/m2/settings-security.xml", sec.Source)
}

func TestLoadSecurity_Relocation(t *testing.T) {
	fs := setupTestFs(t, map[string]string{
		"/m2/settings-security.xml": `<settingsSecurity><relocation>/media/usb/settings-security.xml</relocation></settingsSecurity>`,
		"/media/usb/settings-security.xml": `<settingsSecurity><relocation>vault/master.xml</relocation></settingsSecurity>`,
		"/media/usb/vault/master.xml":      `<settingsSecurity><master>{relocated=}</master></settingsSecurity>`,
	})

	sec, err := LoadSecurity(fs, "/m2/settings-security.xml")
	require.NoError(t, err)

	assert.Equal(t, "relocated=", sec.Master.Payload())
	assert.Equal(t, "/media/usb/vault/master.xml", sec.Source)
}

func TestLoadSecurity_RelocationCycle(t *testing.T) {
	fs := setupTestFs(t, map[string]string{
		"/a.xml": `<settingsSecurity><relocation>/b.xml</relocation></settingsSecurity>`,
		"/b.xml": `<settingsSecurity><relocation>/a.xml</relocation></settingsSecurity>`,
	})

	_, err := LoadSecurity(fs, "/a.xml")

	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
}

func TestLoadSecurity_RelocationMissing(t *testing.T) {
	fs := setupTestFs(t, map[string]string{
		"/a.xml": `<settingsSecurity><relocation>/gone.xml</relocation></settingsSecurity>`,
	})

	_, err := LoadSecurity(fs, "/a.xml")

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "expected NotFoundError, got %v", err)
	assert.Equal(t, "/gone.xml", nf.Path)
	assert.Equal(t, KindSecurity, nf.Kind)
}

func TestLoadSecurity_MissingMaster(t *testing.T) {
	for name, doc := range map[string]string{
		"absent": `<settingsSecurity></settingsSecurity>`,
		"empty":  `<settingsSecurity><master>   </master></settingsSecurity>`,
	} {
		t.Run(name, func(t *testing.T) {
			fs := setupTestFs(t, map[string]string{"/sec.xml": doc})

			_, err := LoadSecurity(fs, "/sec.xml")

			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf), "expected MissingFieldError, got %v", err)
			assert.Equal(t, "master", mf.Field)
		})
	}
}

func TestLoadSecurity_NotFound(t *testing.T) {
	_, err := LoadSecurity(setupTestFs(t, nil), "/nope.xml")

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestLoadSecurity_Malformed(t *testing.T) {
	fs := setupTestFs(t, map[string]string{"/sec.xml": "<settingsSecurity><master>"})

	_, err := LoadSecurity(fs, "/sec.xml")

	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	got, err := ExpandPath("~/.m2/settings.xml")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.m2/settings.xml", got)

	got, err = ExpandPath("relative/path.xml")
	require.NoError(t, err)
	assert.Equal(t, "relative/path.xml", got)

	got, err = DefaultSecurityPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.m2/settings-security.xml", got)
}
