package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/DeprecatedLuar/settings-decoder/internal/crypto"
	"github.com/DeprecatedLuar/settings-decoder/internal/settings"
)

const valuePrompt = "Encrypted value: "

// DecryptOptions are the inputs of HandleDecrypt
type DecryptOptions struct {
	Fs           afero.Fs
	SecurityPath string
	Key          string
	Value        string
	Out          io.Writer
}

// HandleDecrypt decrypts a single value. The key is, in order: Key, the
// master password recovered from SecurityPath, or the system key (which
// decrypts a master password itself). An empty Value is read from the
// terminal without echo.
func HandleDecrypt(opts DecryptOptions) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	value := opts.Value
	if value == "" {
		enclave, err := crypto.PromptSecret(valuePrompt)
		if err != nil {
			return cli.Exit(fmt.Sprintf("no value to decrypt: %v", err), ExitUsage)
		}
		buf, err := enclave.Open()
		if err != nil {
			return fmt.Errorf("failed to open value: %w", err)
		}
		value = string(buf.Bytes())
		buf.Destroy()
	}

	key, err := decryptKey(opts)
	if err != nil {
		return err
	}

	plain, err := crypto.DecryptString(value, key)
	if err != nil {
		return cli.Exit("Error: "+err.Error(), ExitFailure)
	}

	_, err = fmt.Fprintln(opts.Out, plain)
	return err
}

func decryptKey(opts DecryptOptions) (string, error) {
	if opts.Key != "" {
		debugf("using key from command line")
		return opts.Key, nil
	}

	if opts.SecurityPath == "" {
		debugf("no security file, using system key")
		return crypto.SystemKey, nil
	}

	path, err := checkInput(opts.Fs, settings.KindSecurity, opts.SecurityPath)
	if err != nil {
		return "", err
	}

	sec, err := settings.LoadSecurity(opts.Fs, path)
	if err != nil {
		return "", exitError(err)
	}

	master, err := crypto.Decrypt(sec.Master, crypto.SystemKey)
	if err != nil {
		return "", exitError(fmt.Errorf("cannot decrypt master password from %s: %w", sec.Source, err))
	}

	debugf("using master password from %s", sec.Source)
	return master, nil
}
