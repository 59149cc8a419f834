// Package auth picks the credential used against the project endpoint
package auth

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

// Scope is the token audience of the Foundry agents API.
const Scope = "https://ai.azure.com/.default"

const APIKeyIgnoredWarning = "API key is set but ignored for client authentication; " +
	"set AZURE_CLIENT_ID, AZURE_TENANT_ID and AZURE_CLIENT_SECRET to use a service principal. " +
	"The key may still be used by project connections."

type Strategy int

const (
	// Ambient tries the developer login, managed identity and the other
	// mechanisms of the hosting environment in turn.
	Ambient Strategy = iota
	ServicePrincipal
)

func (s Strategy) String() string {
	if s == ServicePrincipal {
		return "service-principal"
	}
	return "ambient"
}

type Identity struct {
	ClientID     string
	TenantID     string
	ClientSecret string
	APIKey       string
}

type Selection struct {
	Strategy Strategy
	Warning  string
}

// Select is the credential policy. All three service principal fields must
// be set to use one; anything less falls back to the ambient credential.
func Select(id Identity) Selection {
	if id.ClientID != "" && id.TenantID != "" && id.ClientSecret != "" {
		return Selection{Strategy: ServicePrincipal}
	}
	sel := Selection{Strategy: Ambient}
	if id.APIKey != "" {
		sel.Warning = APIKeyIgnoredWarning
	}
	return sel
}

func NewCredential(id Identity, logger zerolog.Logger) (azcore.TokenCredential, error) {
	sel := Select(id)
	if sel.Warning != "" {
		logger.Warn().Msg(sel.Warning)
	}
	logger.Debug().Stringer("strategy", sel.Strategy).Msg("selected credential")

	switch sel.Strategy {
	case ServicePrincipal:
		cred, err := azidentity.NewClientSecretCredential(id.TenantID, id.ClientID, id.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("service principal credential: %w", err)
		}
		return cred, nil
	default:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("default azure credential: %w", err)
		}
		return cred, nil
	}
}

// RequestOption authenticates every request with a bearer token for Scope.
// Tokens are reused across requests until shortly before they expire.
func RequestOption(cred azcore.TokenCredential) option.RequestOption {
	return azure.WithTokenCredential(newCachingCredential(cred), azure.WithTokenCredentialScopes([]string{Scope}))
}
