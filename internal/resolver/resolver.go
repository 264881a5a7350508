// Package resolver turns a settings file and its security file into
// plaintext credentials.
//
// Resolution runs through a fixed sequence of states:
//
//	Start → SecurityLoaded → SettingsLoaded → MasterDecrypted → ServerResolved* → Done
//
// and moves to Failed from any of them on a fatal error. Both files are
// loaded before anything is decrypted. A record that fails to decrypt is
// kept in the result with its error and does not stop resolution.
//
// The master password is sealed in a memguard enclave while records are
// decrypted, which only limits the copies made inside the cipher. Result
// holds the master and every recovered password as ordinary strings, since
// printing them is the point of the tool.
package resolver

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/DeprecatedLuar/settings-decoder/internal/crypto"
	"github.com/DeprecatedLuar/settings-decoder/internal/settings"
)

// State is a step of a resolution run
type State int

const (
	StateStart State = iota
	StateSecurityLoaded
	StateSettingsLoaded
	StateMasterDecrypted
	StateServerResolved
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateStart:           "start",
	StateSecurityLoaded:  "security-loaded",
	StateSettingsLoaded:  "settings-loaded",
	StateMasterDecrypted: "master-decrypted",
	StateServerResolved:  "server-resolved",
	StateDone:            "done",
	StateFailed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Kind of credential record
type Kind string

const (
	KindServer Kind = "server"
	KindProxy  Kind = "proxy"
)

// Fields that can fail to decrypt
const (
	FieldPassword   = "password"
	FieldPassphrase = "passphrase"
)

// Credential is a decrypted server or proxy entry. Err is set when the
// field named by FailedField could not be decrypted; the other fields are
// still filled in.
type Credential struct {
	Kind        Kind
	ID          string
	Username    string
	Password    string
	Passphrase  string
	PrivateKey  string
	Host        string
	FailedField string
	Err         error
}

// Failed reports whether the record could not be decrypted
func (c Credential) Failed() bool {
	return c.Err != nil
}

// Result is the outcome of a successful run
type Result struct {
	// Master is the plaintext master password, kept for the reporters
	Master         string
	SecuritySource string
	SettingsSource string
	Credentials    []Credential

	// IDs left out by the Match option, in document order
	Skipped []string
}

// Failures returns the number of records that could not be decrypted
func (r *Result) Failures() (n int) {
	for _, c := range r.Credentials {
		if c.Failed() {
			n++
		}
	}
	return
}

// Options configure a Resolver
type Options func(*resolverOpts)

type resolverOpts struct {
	match func(id string) bool
}

func evalOptions(options ...Options) *resolverOpts {
	opts := &resolverOpts{
		match: func(string) bool { return true },
	}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// Match limits resolution to records whose ID satisfies match. Order is
// unchanged.
func Match(match func(id string) bool) Options {
	return func(ro *resolverOpts) {
		if match != nil {
			ro.match = match
		}
	}
}

// Resolver runs one resolution. It is not reusable.
type Resolver struct {
	fs           afero.Fs
	settingsPath string
	securityPath string
	opts         *resolverOpts

	state   State
	history []State
}

// New returns a Resolver reading both files from fs
func New(fs afero.Fs, settingsPath, securityPath string, options ...Options) *Resolver {
	return &Resolver{
		fs:           fs,
		settingsPath: settingsPath,
		securityPath: securityPath,
		opts:         evalOptions(options...),
		state:        StateStart,
		history:      []State{StateStart},
	}
}

// State returns the current state
func (r *Resolver) State() State {
	return r.state
}

// History returns every state entered so far, in order
func (r *Resolver) History() []State {
	return append([]State(nil), r.history...)
}

func (r *Resolver) enter(s State) {
	r.state = s
	r.history = append(r.history, s)
	log.Debug().Str("state", s.String()).Msg("resolver")
}

func (r *Resolver) fail(err error) error {
	r.enter(StateFailed)
	return err
}

// Resolve loads both files, recovers the master password and decrypts every
// matching record. It returns an error only for fatal conditions: a missing
// or malformed file, a missing master or a master that does not decrypt.
func (r *Resolver) Resolve() (*Result, error) {
	if r.state != StateStart {
		return nil, errors.New("resolver already used")
	}

	sec, err := settings.LoadSecurity(r.fs, r.securityPath)
	if err != nil {
		return nil, r.fail(err)
	}
	r.enter(StateSecurityLoaded)
	log.Debug().Str("path", sec.Source).Msg("security file loaded")

	s, err := settings.LoadSettings(r.fs, r.settingsPath)
	if err != nil {
		return nil, r.fail(err)
	}
	r.enter(StateSettingsLoaded)
	log.Debug().Str("path", s.Source).Int("servers", len(s.Servers)).Int("proxies", len(s.Proxies)).Msg("settings file loaded")

	plain, err := crypto.Decrypt(sec.Master, crypto.SystemKey)
	if err != nil {
		return nil, r.fail(fmt.Errorf("cannot decrypt master password from %s: %w", sec.Source, err))
	}
	master := sealMaster(plain)
	r.enter(StateMasterDecrypted)

	result := &Result{
		Master:         plain,
		SecuritySource: sec.Source,
		SettingsSource: s.Source,
		Credentials:    []Credential{},
	}

	for _, server := range s.Servers {
		if !r.opts.match(server.ID) {
			result.Skipped = append(result.Skipped, server.ID)
			continue
		}
		result.Credentials = append(result.Credentials, resolveServer(server, master))
		r.enter(StateServerResolved)
	}

	for _, proxy := range s.Proxies {
		if !r.opts.match(proxy.ID) {
			result.Skipped = append(result.Skipped, proxy.ID)
			continue
		}
		result.Credentials = append(result.Credentials, resolveProxy(proxy, master))
		r.enter(StateServerResolved)
	}

	r.enter(StateDone)
	return result, nil
}

func resolveServer(server settings.Server, master *memguard.Enclave) Credential {
	c := Credential{
		Kind:       KindServer,
		ID:         server.ID,
		Username:   server.Username,
		PrivateKey: server.PrivateKey,
	}

	var err error
	if c.Password, err = decryptWith(master, server.Password); err != nil {
		c.fail(FieldPassword, err)
	}
	if c.Passphrase, err = decryptWith(master, server.Passphrase); err != nil {
		c.fail(FieldPassphrase, err)
	}

	return c
}

func resolveProxy(proxy settings.Proxy, master *memguard.Enclave) Credential {
	c := Credential{
		Kind:     KindProxy,
		ID:       proxy.ID,
		Username: proxy.Username,
		Host:     proxy.Host,
	}
	if proxy.Port != "" {
		c.Host += ":" + proxy.Port
	}

	var err error
	if c.Password, err = decryptWith(master, proxy.Password); err != nil {
		c.fail(FieldPassword, err)
	}

	return c
}

// fail records the first field that did not decrypt
func (c *Credential) fail(field string, err error) {
	log.Debug().Str("kind", string(c.Kind)).Str("id", c.ID).Str("field", field).Err(err).Msg("not decrypted")
	if c.Err != nil {
		return
	}
	c.FailedField = field
	c.Err = fmt.Errorf("%s: %w", field, err)
}

// sealMaster keeps the key handed to the cipher in an enclave between
// records; Result.Master is a separate plain copy.
// memguard does not hold empty buffers, so an empty master is a nil enclave.
func sealMaster(plain string) *memguard.Enclave {
	if plain == "" {
		return nil
	}
	return memguard.NewEnclave([]byte(plain))
}

func decryptWith(master *memguard.Enclave, v crypto.Value) (string, error) {
	// plain values never need the key
	if !v.Encrypted() {
		return v.Text(), nil
	}

	key := ""
	if master != nil {
		buf, err := master.Open()
		if err != nil {
			return "", fmt.Errorf("cannot open master key: %w", err)
		}
		defer buf.Destroy()
		key = buf.String()
	}

	return crypto.Decrypt(v, key)
}
