// Package account resolves the identity the audit runs under, for report
// headers and log context.
package account

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// STSAPI defines the STS operations we use
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// OrganizationsAPI defines the Organizations operations we use
type OrganizationsAPI interface {
	DescribeAccount(ctx context.Context, params *organizations.DescribeAccountInput, optFns ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error)
}

// Identity is the account an audit ran against.
type Identity struct {
	AccountID string
	Alias     string
}

// Lookup resolves and caches the caller's account identity
type Lookup struct {
	mu         sync.RWMutex
	aliasCache map[string]string
	stsClient  STSAPI
	orgsClient OrganizationsAPI
}

// NewLookup creates a new account lookup
func NewLookup(cfg aws.Config) *Lookup {
	return &Lookup{
		aliasCache: make(map[string]string),
		stsClient:  sts.NewFromConfig(cfg),
		orgsClient: organizations.NewFromConfig(cfg),
	}
}

// SetSTSAPI allows injecting a mock STS API for testing
func (l *Lookup) SetSTSAPI(api STSAPI) {
	l.stsClient = api
}

// SetOrganizationsAPI allows injecting a mock Organizations API for testing
func (l *Lookup) SetOrganizationsAPI(api OrganizationsAPI) {
	l.orgsClient = api
}

// CallerIdentity returns the account ID and friendly alias of the caller.
func (l *Lookup) CallerIdentity(ctx context.Context) (Identity, error) {
	result, err := l.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, err
	}

	accountID := aws.ToString(result.Account)
	return Identity{
		AccountID: accountID,
		Alias:     l.accountAlias(ctx, accountID),
	}, nil
}

// accountAlias returns the friendly name for an account ID.
// Returns the account ID if lookup fails or if accountID is empty.
func (l *Lookup) accountAlias(ctx context.Context, accountID string) string {
	if accountID == "" {
		return ""
	}

	l.mu.RLock()
	if alias, ok := l.aliasCache[accountID]; ok {
		l.mu.RUnlock()
		return alias
	}
	l.mu.RUnlock()

	alias := l.fetchAccountAlias(ctx, accountID)

	l.mu.Lock()
	l.aliasCache[accountID] = alias
	l.mu.Unlock()

	return alias
}

// fetchAccountAlias fetches the account name from AWS Organizations
func (l *Lookup) fetchAccountAlias(ctx context.Context, accountID string) string {
	input := &organizations.DescribeAccountInput{
		AccountId: aws.String(accountID),
	}

	result, err := l.orgsClient.DescribeAccount(ctx, input)
	if err != nil {
		// This might happen if:
		// - Not running from organization management account
		// - Missing organizations:DescribeAccount permission
		// - Single account (not in an organization)
		common.AppLogger.Printf("    ℹ️  Could not fetch account alias for %s: %v (using ID)\n", accountID, err)
		return accountID
	}

	if result.Account != nil && result.Account.Name != nil {
		return aws.ToString(result.Account.Name)
	}

	return accountID
}
