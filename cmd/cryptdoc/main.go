// Command cryptdoc manages keys in a persistent keychain and
// encrypts, signs and interprets composite crypt documents.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cryptdoc/cryptdoc"
	"github.com/cryptdoc/cryptdoc/internal/config"
	"github.com/cryptdoc/cryptdoc/internal/keychain"
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
	"github.com/cryptdoc/cryptdoc/pkg/secret"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cryptdoc <command> [flags]

commands:
  keygen    generate a key pair and store it in the keychain
  encrypt   encrypt stdin for a public key
  decrypt   decrypt a cipher document from stdin
  sign      sign stdin with a private key
  validate  validate a signature document from stdin
  process   interpret a composite document from stdin`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	conf, err := config.Load("cryptdoc.yaml")
	if err != nil {
		log.Fatal(err)
	}

	store, err := keychain.NewStore(keychain.StoreConfig{
		Path:          conf.KeychainPath,
		MinimumFreeGB: conf.MinimumFreeGB,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{
		DefaultCipher: conf.DefaultCipher,
		DefaultSigner: conf.DefaultSigner,
	})

	switch os.Args[1] {
	case "keygen":
		err = keygen(crypt, store, os.Args[2:])
	case "encrypt":
		err = encrypt(crypt, store, os.Args[2:])
	case "decrypt":
		err = decrypt(crypt, store, os.Args[2:])
	case "sign":
		err = sign(crypt, store, os.Args[2:])
	case "validate":
		err = validate(crypt, store, os.Args[2:])
	case "process":
		err = process(crypt, store, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func keygen(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	kind := fs.String("kind", "cipher", "cipher or sign")
	method := fs.String("method", "", "provider name, empty for the default")
	length := fs.Int("length", 0, "key length in bits, 0 for the provider default")
	passphrase := fs.String("passphrase", "", "protect the private key with a passphrase")
	fs.Parse(args)

	opts := provider.KeyOptions{Length: *length, Passphrase: *passphrase}
	var priv, pub *pem.Block
	var err error
	if *kind == "sign" {
		priv, pub, err = crypt.CreateSignKeys(*method, opts)
	} else {
		priv, pub, err = crypt.CreateCipherKeys(*method, opts)
	}
	if err != nil {
		return err
	}
	if err := store.AddKey(priv); err != nil {
		return err
	}
	if err := store.AddKey(pub); err != nil {
		return err
	}
	if *passphrase != "" {
		store.SetPassphrase(priv.GetString(pem.Ident, ""), *passphrase)
	}
	fmt.Printf("private key %s\npublic key  %s\n",
		priv.GetString(pem.Ident, ""), pub.GetString(pem.Ident, ""))
	return nil
}

func encrypt(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	keyID := fs.String("key", "", "public key identifier")
	embedded := fs.Bool("embedded", false, "mark the cipher block as embedded")
	fs.Parse(args)

	pub := store.GetPublicKey(*keyID)
	if pub == nil {
		return fmt.Errorf("public key %q not in keychain", *keyID)
	}
	plaintext, err := readStdin()
	if err != nil {
		return err
	}
	block, err := crypt.Encrypt(pub, plaintext)
	if err != nil {
		return err
	}
	if *embedded {
		block.SetBool(pem.Embedded, true)
	}
	fmt.Print(block.Render())
	return nil
}

func decrypt(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	passphrase := fs.String("passphrase", "", "private key passphrase")
	fs.Parse(args)

	block, err := readBlock(pem.KindCipher)
	if err != nil {
		return err
	}
	privID := block.GetString(pem.PrivID, "")
	if privID == "" {
		if pubID := block.GetString(pem.PubID, ""); pubID != "" {
			privID = store.GetPrivateIDForPublicID(pubID)
		}
	}
	priv := store.GetPrivateKey(privID)
	if priv == nil {
		return fmt.Errorf("private key for cipher block not in keychain")
	}
	plaintext, err := crypt.Decrypt(priv, block, *passphrase)
	if err != nil {
		return err
	}
	fmt.Println(plaintext)
	return nil
}

func sign(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyID := fs.String("key", "", "private key identifier")
	passphrase := fs.String("passphrase", "", "private key passphrase")
	fs.Parse(args)

	priv := store.GetPrivateKey(*keyID)
	if priv == nil {
		return fmt.Errorf("private key %q not in keychain", *keyID)
	}
	text, err := readStdin()
	if err != nil {
		return err
	}
	block, err := crypt.Sign(priv, text, *passphrase)
	if err != nil {
		return err
	}
	fmt.Print(block.Render())
	return nil
}

func validate(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	text := fs.String("text", "", "the signed text")
	fs.Parse(args)

	block, err := readBlock(pem.KindSignature)
	if err != nil {
		return err
	}
	pubID := block.GetString(pem.PubID, "")
	pub := store.GetPublicKey(pubID)
	if pub == nil {
		return fmt.Errorf("public key %q not in keychain", pubID)
	}
	valid, err := crypt.Validate(pub, *text, block)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("signature not valid")
	}
	fmt.Println("signature valid")
	return nil
}

func process(crypt *cryptdoc.Crypt, store *keychain.Store, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	show := fs.Bool("show-secrets", false, "print decrypted payloads")
	fs.Parse(args)

	text, err := readStdin()
	if err != nil {
		return err
	}
	list, err := pem.Parse(text)
	if err != nil {
		return err
	}
	if *show {
		store.OnSecret = func(_ *pem.Block, sec *secret.Text) {
			fmt.Println(sec.String())
		}
	}
	if err := crypt.ProcessBlocks(store, list); err != nil {
		return err
	}
	fmt.Printf("processed %d blocks\n", list.Len())
	return nil
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readBlock(kind pem.Kind) (*pem.Block, error) {
	text, err := readStdin()
	if err != nil {
		return nil, err
	}
	list, err := pem.Parse(text)
	if err != nil {
		return nil, err
	}
	for _, b := range list.Blocks() {
		if b.Kind() == kind {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no %s block in input", kind)
}
