package settings

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/DeprecatedLuar/settings-decoder/internal/crypto"
)

// Settings is the part of a Maven settings.xml that carries credentials.
type Settings struct {
	XMLName         xml.Name `xml:"settings"`
	LocalRepository string   `xml:"localRepository,omitempty"`
	Servers         []Server `xml:"servers>server"`
	Proxies         []Proxy  `xml:"proxies>proxy"`

	// Path the settings were read from
	Source string `xml:"-"`
}

// Server is one <server> entry. Username and password may be empty for
// unauthenticated or key-based servers.
type Server struct {
	ID                   string       `xml:"id"`
	Username             string       `xml:"username"`
	Password             crypto.Value `xml:"password"`
	PrivateKey           string       `xml:"privateKey"`
	Passphrase           crypto.Value `xml:"passphrase"`
	FilePermissions      string       `xml:"filePermissions"`
	DirectoryPermissions string       `xml:"directoryPermissions"`
}

// Proxy is one <proxy> entry.
type Proxy struct {
	ID            string       `xml:"id"`
	Active        string       `xml:"active"`
	Protocol      string       `xml:"protocol"`
	Host          string       `xml:"host"`
	Port          string       `xml:"port"`
	Username      string       `xml:"username"`
	Password      crypto.Value `xml:"password"`
	NonProxyHosts string       `xml:"nonProxyHosts"`
}

// LoadSettings reads and parses a settings file. Servers and proxies keep
// their document order.
func LoadSettings(fs afero.Fs, path string) (*Settings, error) {
	var s Settings
	if err := decodeFile(fs, KindSettings, path, &s); err != nil {
		return nil, err
	}
	s.Source = path

	for i := range s.Servers {
		s.Servers[i].ID = strings.TrimSpace(s.Servers[i].ID)
		s.Servers[i].Username = strings.TrimSpace(s.Servers[i].Username)
	}
	for i := range s.Proxies {
		s.Proxies[i].ID = strings.TrimSpace(s.Proxies[i].ID)
		s.Proxies[i].Username = strings.TrimSpace(s.Proxies[i].Username)
	}

	return &s, nil
}

// decodeFile opens path on fs and decodes a single XML document into v.
func decodeFile(fs afero.Fs, kind, path string, v any) error {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NotFoundError{Kind: kind, Path: path}
		}
		return fmt.Errorf("failed to open %s file: %w", kind, err)
	}
	defer f.Close()

	if err := decodeXML(f, v); err != nil {
		return &ParseError{Kind: kind, Path: path, Err: err}
	}
	return nil
}

func decodeXML(r io.Reader, v any) error {
	d := xml.NewDecoder(r)
	// settings files written on Windows often declare windows-1252 or
	// ISO-8859-1; credential fields are ASCII in practice
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	if err := d.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}
