package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
)

// StructuredReporter writes JSON or TOML for use by other tools
type StructuredReporter struct {
	format string
}

var _ Reporter = (*StructuredReporter)(nil)

// Document is the machine readable form of a result
type Document struct {
	Master       string   `json:"master" toml:"master"`
	SecurityFile string   `json:"security_file" toml:"security_file"`
	SettingsFile string   `json:"settings_file" toml:"settings_file"`
	Credentials  []Record `json:"credentials" toml:"credentials"`
}

// Record is one credential in a Document. Error is set instead of the
// failed field when decryption did not succeed.
type Record struct {
	Kind       string `json:"kind" toml:"kind"`
	ID         string `json:"id" toml:"id"`
	Username   string `json:"username" toml:"username"`
	Password   string `json:"password" toml:"password"`
	Passphrase string `json:"passphrase,omitempty" toml:"passphrase,omitempty"`
	PrivateKey string `json:"private_key,omitempty" toml:"private_key,omitempty"`
	Host       string `json:"host,omitempty" toml:"host,omitempty"`
	Error      string `json:"error,omitempty" toml:"error,omitempty"`
}

// NewDocument converts a result for encoding
func NewDocument(r *resolver.Result) Document {
	doc := Document{
		Master:       r.Master,
		SecurityFile: r.SecuritySource,
		SettingsFile: r.SettingsSource,
		Credentials:  make([]Record, 0, len(r.Credentials)),
	}

	for _, c := range r.Credentials {
		rec := Record{
			Kind:       string(c.Kind),
			ID:         c.ID,
			Username:   c.Username,
			Password:   c.Password,
			Passphrase: c.Passphrase,
			PrivateKey: c.PrivateKey,
			Host:       c.Host,
		}
		if c.Err != nil {
			rec.Error = c.Err.Error()
		}
		doc.Credentials = append(doc.Credentials, rec)
	}
	return doc
}

func (sr *StructuredReporter) Report(w io.Writer, r *resolver.Result) error {
	doc := NewDocument(r)

	switch sr.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported structured format %q", sr.format)
	}
	return nil
}
