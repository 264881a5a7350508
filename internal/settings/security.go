package settings

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/DeprecatedLuar/settings-decoder/internal/crypto"
)

const (
	masterField = "master"

	// relocation chains longer than this are treated as broken
	maxRelocations = 16
)

// SettingsSecurity is the content of a settings-security.xml file.
type SettingsSecurity struct {
	XMLName    xml.Name     `xml:"settingsSecurity"`
	Master     crypto.Value `xml:"master"`
	Relocation string       `xml:"relocation"`

	// File the master value was finally read from, after relocations
	Source string `xml:"-"`
}

// LoadSecurity reads a security file, following <relocation> elements to
// the file that holds the master password. A missing or empty master is a
// *MissingFieldError since nothing can be decrypted without it.
func LoadSecurity(fs afero.Fs, path string) (*SettingsSecurity, error) {
	visited := map[string]bool{}

	for {
		if visited[path] {
			return nil, &ParseError{Kind: KindSecurity, Path: path, Err: fmt.Errorf("relocation cycle")}
		}
		if len(visited) >= maxRelocations {
			return nil, &ParseError{Kind: KindSecurity, Path: path, Err: fmt.Errorf("more than %d relocations", maxRelocations)}
		}
		visited[path] = true

		var sec SettingsSecurity
		if err := decodeFile(fs, KindSecurity, path, &sec); err != nil {
			return nil, err
		}
		sec.Source = path

		relocation := strings.TrimSpace(sec.Relocation)
		if relocation == "" {
			if sec.Master.IsZero() {
				return nil, &MissingFieldError{Path: path, Field: masterField}
			}
			return &sec, nil
		}

		next, err := resolveRelative(path, relocation)
		if err != nil {
			return nil, &ParseError{Kind: KindSecurity, Path: path, Err: err}
		}
		path = next
	}
}
