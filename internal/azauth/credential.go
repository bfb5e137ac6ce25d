// Package azauth picks Azure Storage credentials: the Azurite development
// account for plain-http endpoints, DefaultAzureCredential otherwise.
package azauth

import (
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// Well-known Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// IsLocal reports whether serviceURL points at a local emulator.
func IsLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

// Azurite returns the emulator account name and key.
func Azurite() (name, key string) {
	return azuriteAccountName, azuriteAccountKey
}

// Default returns DefaultAzureCredential (managed identity, CLI login, env).
func Default() (azcore.TokenCredential, error) {
	slog.Info("using default Azure credentials")
	return azidentity.NewDefaultAzureCredential(nil)
}
