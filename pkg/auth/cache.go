package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// refreshMargin is how long before expiry a cached token is replaced.
const refreshMargin = 5 * time.Minute

// cachingCredential hands out the last token per tenant and scope set until
// it is close to expiry. openai-go rebuilds the bearer policy for every
// request, so the policy's own cache never sees a second call.
type cachingCredential struct {
	cred azcore.TokenCredential

	mu     sync.Mutex
	tokens map[string]azcore.AccessToken
}

func newCachingCredential(cred azcore.TokenCredential) *cachingCredential {
	return &cachingCredential{cred: cred, tokens: map[string]azcore.AccessToken{}}
}

func (c *cachingCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	// claims challenges always need a fresh token
	if opts.Claims != "" {
		return c.cred.GetToken(ctx, opts)
	}

	key := opts.TenantID + "|" + strings.Join(opts.Scopes, " ")
	c.mu.Lock()
	defer c.mu.Unlock()

	if tok, ok := c.tokens[key]; ok && fresh(tok, time.Now()) {
		return tok, nil
	}
	tok, err := c.cred.GetToken(ctx, opts)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	c.tokens[key] = tok
	return tok, nil
}

func fresh(tok azcore.AccessToken, now time.Time) bool {
	if !tok.RefreshOn.IsZero() && !now.Before(tok.RefreshOn) {
		return false
	}
	return tok.ExpiresOn.Sub(now) > refreshMargin
}
