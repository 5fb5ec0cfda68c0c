package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	sec "github.com/dropDatabas3/socialgate/internal/security/secretbox"
)

// enc cifra un secreto (client_secret de un provider, session secret) para
// pegarlo en los campos *_enc del config YAML.
//
// Uso: SOCIALGATE_MASTER_KEY=... enc "mi-client-secret"
func main() {
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		log.Fatal("usage: enc <plaintext>")
	}
	if !sec.Ready() {
		log.Fatal("SOCIALGATE_MASTER_KEY not set (base64, 32 bytes)")
	}
	out, err := sec.Encrypt(os.Args[1])
	if err != nil {
		log.Fatalf("encrypt: %v", err)
	}
	fmt.Println(out)
}
